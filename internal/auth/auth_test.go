package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDenylist map[string]bool

func (s stubDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	return s[id], nil
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("admin")
	assert.Error(t, err)

	assert.True(t, RoleCustomer.CanBook())
	assert.False(t, RoleAdmin.CanBook())
	assert.True(t, RoleAdmin.ManagesFleet())
	assert.False(t, Role("Guest").ManagesFleet())
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "carrental", time.Hour)
	token, issued, err := issuer.Issue(42, "alice", RoleCustomer)
	require.NoError(t, err)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, RoleCustomer, got.Role)
	assert.Equal(t, issued.TokenID, got.TokenID)
	assert.True(t, issued.ExpiresAt.Equal(got.ExpiresAt))
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", "carrental", time.Hour)
	token, _, err := issuer.Issue(1, "bob", RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", "carrental", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenIssuer("secret", "someone-else", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer("secret", "carrental", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(1, "bob", RoleAdmin)
	require.NoError(t, err)
	_, err = issuer.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", "carrental", time.Hour)
	customer, customerID, err := issuer.Issue(7, "carol", RoleCustomer)
	require.NoError(t, err)
	admin, _, err := issuer.Issue(1, "admin", RoleAdmin)
	require.NoError(t, err)

	deny := stubDenylist{}
	var seen Identity
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := Authenticate(issuer, deny)(RequireRole(RoleAdmin)(final))

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin/cars", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("garbage"))
	assert.Equal(t, http.StatusForbidden, call(customer))
	assert.Equal(t, http.StatusNoContent, call(admin))
	assert.Equal(t, "admin", seen.Username)

	deny[customerID.TokenID] = true
	h = Authenticate(issuer, deny)(final)
	assert.Equal(t, http.StatusUnauthorized, call(customer))
}
