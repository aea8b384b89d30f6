package mail

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"gatekeeper/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("noreply@x.com", "a@x.com", "Verify Your Account", "line one\nline two")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "From: <noreply@x.com>\r\n")
	assert.Contains(t, text, "To: <a@x.com>\r\n")
	assert.Contains(t, text, "Subject: Verify Your Account\r\n")
	assert.Regexp(t, `(?m)^Date: \S`, text)
	assert.Regexp(t, `(?m)^Message-ID: <`, text)
	assert.Contains(t, text, "line one")
	assert.Contains(t, text, "line two")
}

func TestBuildMessage_RejectsInvalidAddress(t *testing.T) {
	_, err := buildMessage("noreply@x.com", "not an address", "Subject", "body")
	assert.Error(t, err)
}

func TestBuildMessage_RejectsHeaderInjection(t *testing.T) {
	_, err := buildMessage("noreply@x.com", "a@x.com\r\nBcc: evil@x.com", "Subject", "body")
	assert.ErrorIs(t, err, errHeaderInjection)

	_, err = buildMessage("noreply@x.com", "a@x.com", "Subject\nBcc: evil@x.com", "body")
	assert.ErrorIs(t, err, errHeaderInjection)
}

// fakeSMTPServer speaks just enough SMTP for a plain-auth client without STARTTLS.
type fakeSMTPServer struct {
	listener net.Listener
	mu       sync.Mutex
	from     string
	rcpt     string
	data     string
	authed   bool
}

func newFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &fakeSMTPServer{listener: ln}
	go srv.serve()
	t.Cleanup(func() { _ = ln.Close() })

	return srv
}

func (s *fakeSMTPServer) serve() {
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = io.WriteString(conn, line+"\r\n") }

	reply("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(cmd)

		switch {
		case strings.HasPrefix(upper, "EHLO"):
			reply("250-localhost")
			reply("250-AUTH PLAIN")
			reply("250 HELP")
		case strings.HasPrefix(upper, "AUTH PLAIN"):
			s.mu.Lock()
			s.authed = true
			s.mu.Unlock()
			reply("235 2.7.0 Authentication successful")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			s.mu.Lock()
			s.from = cmd[len("MAIL FROM:"):]
			s.mu.Unlock()
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			s.mu.Lock()
			s.rcpt = cmd[len("RCPT TO:"):]
			s.mu.Unlock()
			reply("250 OK")
		case upper == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var b strings.Builder
			for {
				dl, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if dl == ".\r\n" {
					break
				}
				b.WriteString(dl)
			}
			s.mu.Lock()
			s.data = b.String()
			s.mu.Unlock()
			reply("250 OK")
		case upper == "QUIT":
			reply("221 Bye")

			return
		default:
			reply("250 OK")
		}
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	srv := newFakeSMTPServer(t)
	addr := srv.listener.Addr().(*net.TCPAddr)

	mailer := NewSMTPMailer(&config.SMTPConfig{
		Enabled:  true,
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Username: "noreply@x.com",
		Password: "secret",
		Sender:   "noreply@x.com",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := mailer.Send(ctx, "a@x.com", "Verify Your Account", "Please click the following link")
	require.NoError(t, err)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.True(t, srv.authed)
	assert.Contains(t, srv.from, "<noreply@x.com>")
	assert.Contains(t, srv.rcpt, "<a@x.com>")
	assert.Contains(t, srv.data, "Subject: Verify Your Account\r\n")
	assert.Regexp(t, `(?m)^Date: \S`, srv.data)
	assert.Regexp(t, `(?m)^Message-ID: <`, srv.data)
	assert.Contains(t, srv.data, "Please click the following link")
}

func TestSMTPMailer_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	mailer := NewSMTPMailer(&config.SMTPConfig{Host: "127.0.0.1", Port: port, Sender: "noreply@x.com"})

	err = mailer.Send(context.Background(), "a@x.com", "Subject", "body")
	assert.Error(t, err)
}

func TestNewMailer_SelectsLogMailerWhenDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mailer := NewMailer(MailerParams{Config: &config.Config{}, Logger: logger})
	_, ok := mailer.(*logMailer)
	assert.True(t, ok)
	assert.NoError(t, mailer.Send(context.Background(), "a@x.com", "Subject", "body"))

	cfg := &config.Config{SMTP: &config.SMTPConfig{Enabled: true, Host: "localhost", Port: 25, Sender: "noreply@x.com"}}
	_, ok = NewMailer(MailerParams{Config: cfg, Logger: logger}).(*smtpMailer)
	assert.True(t, ok)
}

func TestLogMailer_OmitsBodyWhenRequested(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	require.NoError(t, NewLogMailer(logger, false).Send(context.Background(), "a@x.com", "Reset Your Password", "token=secret"))
	assert.Contains(t, buf.String(), "Reset Your Password")
	assert.NotContains(t, buf.String(), "token=secret")

	buf.Reset()
	require.NoError(t, NewLogMailer(logger, true).Send(context.Background(), "a@x.com", "Reset Your Password", "token=secret"))
	assert.Contains(t, buf.String(), "token=secret")
}
