package impl

import (
	"context"
	"testing"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/infra/auth"
	"gatekeeper/internal/infra/persistence/postgres"
	"gatekeeper/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockTokenSigner struct {
	mock.Mock
}

func (m *mockTokenSigner) Issue(identity entity.Identity) (string, time.Time, error) {
	args := m.Called(identity)

	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenSigner) Validate(token string) (*entity.AccessClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*entity.AccessClaims)

	return claims, args.Error(1)
}

func (m *mockTokenSigner) AccessTokenTTL() time.Duration {
	return 15 * time.Minute
}

func newSessionServiceWithSigner(t *testing.T, signer service.TokenSigner) (usecase.SessionUsecase, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)

	return NewSessionService(SessionServiceParams{
		SessionRepo: postgres.NewRefreshSessionRepository(db),
		Signer:      signer,
		Tokens:      auth.NewOpaqueTokenGenerator(),
		Clock:       &fakeClock{now: testStart},
		Config:      testConfig(),
		Logger:      newDiscardLogger(),
	}), db
}

func TestSessionService_Authenticate_MapsSignerErrors(t *testing.T) {
	tests := []struct {
		name       string
		signerErr  error
		wantErr    *domainerrors.BaseError
		wantReason string
	}{
		{
			name:       "expired",
			signerErr:  service.ErrTokenExpired,
			wantErr:    domainerrors.ErrTokenExpired,
			wantReason: domainerrors.ReasonExpired,
		},
		{
			name:       "missing claims",
			signerErr:  service.ErrTokenMissingClaims,
			wantErr:    domainerrors.ErrUnauthorized,
			wantReason: domainerrors.ReasonMissingClaims,
		},
		{
			name:       "bad signature",
			signerErr:  errors.Wrap(service.ErrTokenMalformed, "signature is invalid"),
			wantErr:    domainerrors.ErrUnauthorized,
			wantReason: domainerrors.ReasonMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := new(mockTokenSigner)
			signer.On("Validate", "token").Return(nil, tt.signerErr).Once()
			sessions, _ := newSessionServiceWithSigner(t, signer)

			claims, err := sessions.Authenticate(context.Background(), "token")

			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantReason, domainerrors.ReasonOf(err))
			signer.AssertExpectations(t)
		})
	}
}

func TestSessionService_CreateTokenPair_SignerFailure(t *testing.T) {
	signer := new(mockTokenSigner)
	signer.On("Issue", mock.Anything).Return("", time.Time{}, errors.New("hsm offline")).Once()
	sessions, db := newSessionServiceWithSigner(t, signer)

	user := &entity.User{Email: "a@x.com", Username: "alice", PasswordHash: "hash"}
	require.NoError(t, postgres.NewUserRepository(db).Create(context.Background(), user))

	pair, err := sessions.CreateTokenPair(context.Background(), user.Identity(), testDevice)

	require.Error(t, err)
	assert.Nil(t, pair)
	assert.Equal(t, domainerrors.KindServer, domainerrors.KindOf(err))
	signer.AssertExpectations(t)
}
