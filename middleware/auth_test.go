package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func protected() http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := GetRoleFromContext(r.Context())
		w.Header().Set("X-Role", role)
		w.WriteHeader(http.StatusNoContent)
	})
	return Authenticate(secret)(Authorize(RoleOrganizer)(ok))
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	valid := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
		"role": RoleOrganizer,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	viewer := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
		"role": "viewer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	expired := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
		"role": RoleOrganizer,
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"role": RoleOrganizer})
	noRole := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "x"})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid organizer", header: "Bearer " + valid, status: http.StatusNoContent},
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + wrongKey, status: http.StatusUnauthorized},
		{name: "other role", header: "Bearer " + viewer, status: http.StatusForbidden},
		{name: "no role claim", header: "Bearer " + noRole, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/competitions/champions-league/draws", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected().ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, RoleOrganizer, rec.Header().Get("X-Role"))
			}
		})
	}
}
