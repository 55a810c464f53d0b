package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"libreriapos/m/domain"
	"libreriapos/m/internal/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewService(db, "test-secret", nil)
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "admin123"))
	return svc
}

func TestEnsureAdminRunsOnce(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.EnsureAdmin(context.Background(), "otro", "secreto"))
	require.Equal(t, 1, testutil.Count(t, svc.db, "usuarios"))

	var hash string
	require.NoError(t, svc.db.Get(&hash, `SELECT password_hash FROM usuarios WHERE username = 'admin'`))
	require.NotEqual(t, "admin123", hash)
}

func TestEnsureAdminNeedsPassword(t *testing.T) {
	svc := NewService(testutil.NewDB(t), "s", nil)
	require.ErrorIs(t, svc.EnsureAdmin(context.Background(), "admin", ""), ErrPasswordRequired)
}

func TestAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, user.Role)
	require.Empty(t, user.Password)

	_, err = svc.Authenticate(ctx, "admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "admin123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.db.Exec(`UPDATE usuarios SET activo = 0`)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "admin", "admin123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	user, err := svc.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)

	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, ""), ErrPasswordRequired)
	require.NoError(t, svc.ChangePassword(ctx, user.ID, "nueva"))

	_, err = svc.Authenticate(ctx, "admin", "admin123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "admin", "nueva")
	require.NoError(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newService(t)
	token, err := svc.IssueToken(domain.User{ID: 7, Username: "caja", Role: domain.RoleCashier})
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.EqualValues(t, 7, claims.UserID)
	require.Equal(t, domain.RoleCashier, claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	svc := newService(t)
	token, err := svc.IssueToken(domain.User{ID: 7, Role: domain.RoleCashier})
	require.NoError(t, err)

	other := NewService(svc.db, "other-secret", nil)
	_, err = other.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(TokenTTL + time.Minute) }
	_, err = svc.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ParseToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	svc := newService(t)
	admin, err := svc.Authenticate(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	var got Operator
	h := svc.Middleware(func(w http.ResponseWriter, status int, message string) {
		http.Error(w, message, status)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = OperatorFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusUnauthorized, call(""))

	token, err := svc.IssueToken(admin)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, call(token))
	require.Equal(t, Operator{UserID: admin.ID, Role: domain.RoleAdmin}, got)

	// A token for a user that does not exist is refused.
	ghost, err := svc.IssueToken(domain.User{ID: 99, Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, call(ghost))
}

func TestMiddlewareFollowsUserChanges(t *testing.T) {
	svc := newService(t)
	id := testutil.SeedUser(t, svc.db, "caja2", domain.RoleAdmin)
	token, err := svc.IssueToken(domain.User{ID: id, Role: domain.RoleAdmin})
	require.NoError(t, err)

	var got Operator
	h := svc.Middleware(func(w http.ResponseWriter, status int, message string) {
		http.Error(w, message, status)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = OperatorFrom(r.Context())
	}))
	call := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	_, err = svc.db.Exec(`UPDATE usuarios SET rol = ? WHERE usuario_id = ?`, domain.RoleCashier, id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, call())
	require.Equal(t, domain.RoleCashier, got.Role)

	_, err = svc.db.Exec(`UPDATE usuarios SET activo = 0 WHERE usuario_id = ?`, id)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, call())
}

func TestListUsersOmitsPasswordHash(t *testing.T) {
	svc := newService(t)
	testutil.SeedUser(t, svc.db, "cajero1", domain.RoleCashier)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		require.Empty(t, u.Password)
		require.NotEmpty(t, u.Username)
	}
}
