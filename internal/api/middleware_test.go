package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesaflow/sacco-api/internal/auth"
	"github.com/pesaflow/sacco-api/internal/models"
	"github.com/pesaflow/sacco-api/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "sacco.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func putTestUser(t *testing.T, st *store.Store, memberNumber string, role models.Role, active bool) *models.User {
	t.Helper()

	now := time.Now().Add(-time.Minute)
	user := &models.User{
		MemberNumber:      memberNumber,
		FirstName:         "Asha",
		LastName:          "Mwangi",
		PhoneNumber:       "254700000001",
		DateJoined:        now,
		Role:              role,
		IsActive:          active,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, st.PutUser(user))
	return user
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	st := newTestStore(t)
	tokens := auth.NewManager("test-secret", time.Hour)
	putTestUser(t, st, "M1001", models.RoleUser, true)
	putTestUser(t, st, "M3003", models.RoleUser, false)

	protected := AuthMiddleware(tokens, st)(http.HandlerFunc(okHandler))

	do := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("").Code)
	})

	t.Run("bad header format", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Token abc").Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Bearer not.a.token").Code)
	})

	t.Run("unknown subject", func(t *testing.T) {
		token, err := tokens.Issue("GHOST", "user")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do("Bearer "+token).Code)
	})

	t.Run("deactivated user", func(t *testing.T) {
		token, err := tokens.Issue("M3003", "user")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do("Bearer "+token).Code)
	})

	t.Run("token predates password change", func(t *testing.T) {
		token, err := tokens.Issue("M1001", "user")
		require.NoError(t, err)

		user, err := st.GetUser("M1001")
		require.NoError(t, err)
		user.PasswordChangedAt = time.Now().Add(time.Minute)
		require.NoError(t, st.PutUser(user))
		t.Cleanup(func() {
			user.PasswordChangedAt = time.Now().Add(-time.Minute)
			require.NoError(t, st.PutUser(user))
		})

		assert.Equal(t, http.StatusUnauthorized, do("Bearer "+token).Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := tokens.Issue("M1001", "user")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, do("Bearer "+token).Code)
	})
}

func TestAdminOnly(t *testing.T) {
	st := newTestStore(t)
	tokens := auth.NewManager("test-secret", time.Hour)
	putTestUser(t, st, "M1001", models.RoleUser, true)
	putTestUser(t, st, "A9999", models.RoleAdmin, true)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(tokens, st))
	r.With(AdminOnly).Get("/admin", okHandler)

	do := func(memberNumber, role string) int {
		token, err := tokens.Issue(memberNumber, role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, do("M1001", "user"))
	assert.Equal(t, http.StatusOK, do("A9999", "admin"))
}

func TestRestrictToOwner(t *testing.T) {
	st := newTestStore(t)
	tokens := auth.NewManager("test-secret", time.Hour)
	putTestUser(t, st, "M1001", models.RoleUser, true)
	putTestUser(t, st, "A9999", models.RoleAdmin, true)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(tokens, st))
	r.With(RestrictToOwner("id")).Get("/users/{id}", okHandler)

	do := func(memberNumber, path string) int {
		token, err := tokens.Issue(memberNumber, "user")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("M1001", "/users/M1001"))
	// The URL parameter is normalized before comparing.
	assert.Equal(t, http.StatusOK, do("M1001", "/users/m1001"))
	assert.Equal(t, http.StatusForbidden, do("M1001", "/users/M2002"))
	// Admins can read anyone.
	assert.Equal(t, http.StatusOK, do("A9999", "/users/M1001"))
}
