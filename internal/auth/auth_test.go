package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateManagementPassword(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		pw, err := GenerateManagementPassword()
		require.NoError(t, err)
		require.Len(t, pw, ManagementPasswordLength)

		for _, r := range pw {
			assert.True(t, strings.ContainsRune(credentialAlphabet, r), "unexpected symbol %q", r)
		}

		_, dup := seen[pw]
		assert.False(t, dup, "duplicate password %s", pw)
		seen[pw] = struct{}{}
	}
}

func TestBcryptPasswordHasher(t *testing.T) {
	h := NewBcryptPasswordHasherWithCost(bcrypt.MinCost)

	hash, err := h.Hash("ABC234")
	require.NoError(t, err)
	assert.NotEqual(t, "ABC234", hash)

	assert.NoError(t, h.Compare(hash, "ABC234"))
	assert.Error(t, h.Compare(hash, "ABC235"))
	assert.Error(t, h.Compare(hash, ""))
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	token, err := m.GenerateAccessToken("ops@petspot", RoleAdmin)
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@petspot", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = NewJWTManager("other", time.Minute).ParseAndValidate(token)
	assert.Error(t, err)

	expired, err := NewJWTManager("secret", -time.Minute).GenerateAccessToken("x", RoleAdmin)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(expired)
	assert.Error(t, err)
}

func TestAdminMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Minute)

	r := gin.New()
	r.DELETE("/admin", AuthRequired(m), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	adminToken, err := m.GenerateAccessToken("ops", RoleAdmin)
	require.NoError(t, err)
	userToken, err := m.GenerateAccessToken("someone", "reporter")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad format", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"non-admin role", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
