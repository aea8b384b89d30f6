package impl

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/infra/auth"
	"gatekeeper/internal/infra/persistence/postgres"
	"gatekeeper/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testPassword = "GoodPass1!"
	testDevice   = "device-fingerprint-1"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type sentMail struct {
	Recipient string
	Subject   string
	Body      string
}

type recordingMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failErr error
}

func (m *recordingMailer) Send(_ context.Context, recipient, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return m.failErr
	}
	m.sent = append(m.sent, sentMail{Recipient: recipient, Subject: subject, Body: body})

	return nil
}

func (m *recordingMailer) failWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failErr = err
}

var tokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

// lastToken returns the raw token embedded in the most recent mail.
func (m *recordingMailer) lastToken(t *testing.T) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	require.NotEmpty(t, m.sent, "no mail was sent")
	match := tokenPattern.FindStringSubmatch(m.sent[len(m.sent)-1].Body)
	require.Len(t, match, 2)

	return match[1]
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sent)
}

var errSMTPDown = errors.New("smtp relay unavailable")

type testEnv struct {
	db     *gorm.DB
	cfg    *config.Config
	clock  *fakeClock
	mailer *recordingMailer
	tokens service.OpaqueTokenGenerator

	userRepo    repository.UserRepository
	pendingRepo repository.PendingRegistrationRepository
	sessionRepo repository.RefreshSessionRepository
	resetRepo   repository.PasswordResetRepository

	credentials  *CredentialStore
	sessions     usecase.SessionUsecase
	registration usecase.RegistrationUsecase
	auth         usecase.AuthUsecase
	reset        usecase.PasswordResetUsecase
	settings     usecase.SettingsUsecase
	expiry       usecase.ExpiryUsecase
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			AccessTokenMinutes:    15,
			RefreshTokenDays:      7,
			LinkExpirationMinutes: 30,
			FrontendURL:           "https://app.example.com",
		},
		Argon2: &config.Argon2Config{
			MemoryKiB:   1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
	}
	cfg.SecretKey.Access = "test-access-secret"

	return cfg
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, postgres.Migrate(db))

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	cfg := testConfig()
	log := newDiscardLogger()

	env := &testEnv{
		db:          db,
		cfg:         cfg,
		clock:       &fakeClock{now: testStart},
		mailer:      &recordingMailer{},
		userRepo:    postgres.NewUserRepository(db),
		pendingRepo: postgres.NewPendingRegistrationRepository(db),
		sessionRepo: postgres.NewRefreshSessionRepository(db),
		resetRepo:   postgres.NewPasswordResetRepository(db),
	}

	signer, err := auth.NewJWTSigner(cfg)
	require.NoError(t, err)
	tokens := auth.NewOpaqueTokenGenerator()
	env.tokens = tokens
	txManager := postgres.NewTransactionManager(db)

	env.credentials = NewCredentialStore(CredentialStoreParams{
		Hasher: auth.NewArgon2Hasher(cfg),
		Policy: auth.NewPasswordPolicy(cfg),
		Logger: log,
	})
	env.sessions = NewSessionService(SessionServiceParams{
		SessionRepo: env.sessionRepo,
		Signer:      signer,
		Tokens:      tokens,
		Clock:       env.clock,
		Config:      cfg,
		Logger:      log,
	})
	env.registration = NewRegistrationService(RegistrationServiceParams{
		TxManager:   txManager,
		UserRepo:    env.userRepo,
		PendingRepo: env.pendingRepo,
		Credentials: env.credentials,
		Tokens:      tokens,
		Mailer:      env.mailer,
		Sessions:    env.sessions,
		Clock:       env.clock,
		Config:      cfg,
		Logger:      log,
	})
	env.auth = NewAuthService(AuthServiceParams{
		UserRepo:    env.userRepo,
		Credentials: env.credentials,
		Sessions:    env.sessions,
		Logger:      log,
	})
	env.reset = NewPasswordResetService(PasswordResetServiceParams{
		TxManager:   txManager,
		UserRepo:    env.userRepo,
		ResetRepo:   env.resetRepo,
		Credentials: env.credentials,
		Tokens:      tokens,
		Mailer:      env.mailer,
		Sessions:    env.sessions,
		Clock:       env.clock,
		Config:      cfg,
		Logger:      log,
	})
	env.settings = NewSettingsService(SettingsServiceParams{
		UserRepo: env.userRepo,
		Logger:   log,
	})
	env.expiry = NewExpiryService(ExpiryServiceParams{
		PendingRepo: env.pendingRepo,
		SessionRepo: env.sessionRepo,
		ResetRepo:   env.resetRepo,
		Clock:       env.clock,
		Logger:      log,
	})

	return env
}

// registerUser runs signup and verification and returns the first token pair.
func (env *testEnv) registerUser(t *testing.T, email, username string) (*entity.User, *entity.TokenPair) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, env.registration.Signup(ctx, &usecase.SignupInput{
		Email:    email,
		Username: username,
		Password: testPassword,
	}))

	pair, err := env.registration.Verify(ctx, &usecase.VerifyInput{
		Email:             email,
		Token:             env.mailer.lastToken(t),
		DeviceFingerprint: testDevice,
	})
	require.NoError(t, err)

	user, err := env.userRepo.FindByEmail(ctx, normalizeEmail(email))
	require.NoError(t, err)

	return user, pair
}

func (env *testEnv) sessionCount(t *testing.T, user *entity.User) int64 {
	t.Helper()

	count, err := env.sessionRepo.CountByUserID(context.Background(), user.ID)
	require.NoError(t, err)

	return count
}
