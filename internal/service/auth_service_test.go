package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"carrental/internal/auth"
	"carrental/internal/db"
)

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (r *memRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked == nil {
		r.revoked = map[string]time.Time{}
	}
	r.revoked[tokenID] = expiresAt
	return nil
}

type authFixture struct {
	mem     *memDB
	tokens  *auth.TokenIssuer
	revoker *memRevoker
	svc     *AuthService
	now     time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		mem:     newMemDB(),
		tokens:  auth.NewTokenIssuer("test-secret", "carrental", 30*time.Minute),
		revoker: &memRevoker{},
		now:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	sender := NewSenderService(f.mem, &recordingNotifier{}, nopLogger(), SenderConfig{BaseURL: "https://rent.example.com"})
	f.svc = NewAuthService(f.mem, f.mem, f.tokens, f.revoker, sender, 2*time.Hour, nopLogger())
	f.svc.bcryptCost = bcrypt.MinCost
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestRegisterQueuesVerificationEmail(t *testing.T) {
	f := newAuthFixture(t)

	u, err := f.svc.Register(context.Background(), "alice", "secret123", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, string(auth.RoleCustomer), u.Role)
	assert.False(t, u.EmailVerified)
	require.True(t, u.VerificationCode.Valid)
	assert.Len(t, u.VerificationCode.String, 32)
	assert.Equal(t, f.now.Add(2*time.Hour), u.VerificationExpiresAt.Time)
	assert.NotEqual(t, "secret123", u.PasswordHash)

	msgs := f.mem.outboxMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, EventUserVerification, msgs[0].EventType)
	assert.Equal(t, "alice@example.com", msgs[0].Recipient)
	assert.Contains(t, msgs[0].TextBody, "https://rent.example.com/api/auth/verify?code="+u.VerificationCode.String)
	assert.Contains(t, msgs[0].HTMLBody, u.VerificationCode.String)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "alice", "secret123", "alice@example.com")
	require.NoError(t, err)
	_, err = f.svc.Register(context.Background(), "alice", "other", "alice2@example.com")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Len(t, f.mem.outboxMessages(), 1)
}

func TestVerifyAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, "alice", "secret123", "alice@example.com")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "alice", "secret123")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	assert.ErrorIs(t, f.svc.Verify(ctx, ""), ErrInvalidCode)
	assert.ErrorIs(t, f.svc.Verify(ctx, "nope"), ErrCodeNotFound)
	require.NoError(t, f.svc.Verify(ctx, u.VerificationCode.String))
	assert.ErrorIs(t, f.svc.Verify(ctx, u.VerificationCode.String), ErrCodeNotFound)

	_, err = f.svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := f.svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleCustomer, res.Role)

	id, err := f.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, "alice", id.Username)

	me, err := f.svc.Me(ctx, id)
	require.NoError(t, err)
	assert.True(t, me.EmailVerified)
}

func TestVerifyExpiredCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, "alice", "secret123", "alice@example.com")
	require.NoError(t, err)

	f.now = f.now.Add(3 * time.Hour)
	assert.ErrorIs(t, f.svc.Verify(ctx, u.VerificationCode.String), ErrCodeExpired)

	n, err := f.svc.PurgeExpiredRegistrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = f.mem.GetUserByUsername(ctx, "alice")
	assert.Error(t, err)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	who := auth.Identity{UserID: 1, TokenID: "jti-1", ExpiresAt: f.now.Add(time.Minute)}

	require.NoError(t, f.svc.Logout(context.Background(), who))
	assert.Contains(t, f.revoker.revoked, "jti-1")

	f.svc.revoker = nil
	assert.NoError(t, f.svc.Logout(context.Background(), who))
}

func TestEnsureAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	created, err := f.svc.EnsureAdmin(ctx, "admin", "admin123", "admin@example.com")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.EnsureAdmin(ctx, "admin", "admin123", "admin@example.com")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = f.svc.EnsureAdmin(ctx, "", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	res, err := f.svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, res.Role)

	u, err := f.mem.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, db.Verified, u.VerificationState())
}
