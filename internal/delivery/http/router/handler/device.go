package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"gatekeeper/config"
)

// DeviceFingerprint derives the opaque device binding for refresh sessions.
func DeviceFingerprint(r *http.Request) string {
	sum := sha256.Sum256([]byte(r.UserAgent() + "|" + r.Header.Get("Accept-Language")))

	return hex.EncodeToString(sum[:])
}

// refreshCookie writes and clears the http-only refresh token cookie.
type refreshCookie struct {
	name     string
	secure   bool
	sameSite http.SameSite
	maxAge   int
}

func newRefreshCookie(cfg *config.Config) refreshCookie {
	sameSite := http.SameSiteLaxMode
	switch cfg.Auth.Cookie.SameSite {
	case "none":
		sameSite = http.SameSiteNoneMode
	case "strict":
		sameSite = http.SameSiteStrictMode
	}

	return refreshCookie{
		name:     cfg.Auth.Cookie.Name,
		secure:   cfg.Auth.Cookie.Secure || sameSite == http.SameSiteNoneMode,
		sameSite: sameSite,
		maxAge:   int(cfg.Auth.RefreshTokenTTL() / time.Second),
	}
}

func (rc refreshCookie) set(w http.ResponseWriter, rawToken string) {
	http.SetCookie(w, rc.build(rawToken, rc.maxAge))
}

func (rc refreshCookie) clear(w http.ResponseWriter) {
	http.SetCookie(w, rc.build("", -1))
}

func (rc refreshCookie) read(r *http.Request) string {
	cookie, err := r.Cookie(rc.name)
	if err != nil {
		return ""
	}

	return cookie.Value
}

func (rc refreshCookie) build(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     rc.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   rc.secure,
		SameSite: rc.sameSite,
	}
}
