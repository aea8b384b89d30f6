package impl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryService_SweepExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerUser(t, "a@x.com", "alice")
	require.NoError(t, env.reset.Initiate(ctx, "a@x.com"))
	require.NoError(t, env.registration.Signup(ctx, signupInput("b@x.com", "bob", testPassword)))

	result, err := env.expiry.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.PendingRegistrations+result.RefreshSessions+result.PasswordResetTokens)

	env.clock.Advance(8 * 24 * time.Hour)

	result, err = env.expiry.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.PendingRegistrations)
	assert.Equal(t, int64(1), result.RefreshSessions)
	assert.Equal(t, int64(1), result.PasswordResetTokens)
}
