package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pazargate/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:   "test-secret",
			Issuer:   "pazargate",
			Audience: "pazargate-api",
			Expiry:   time.Hour,
		},
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	cfg := testConfig()
	userID := uuid.New()

	token, err := IssueToken(cfg, userID, "+905551234567", "user")
	require.NoError(t, err)

	claims, err := ValidateToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "+905551234567", claims.Phone)
	assert.Equal(t, "user", claims.Role)
}

func TestValidateTokenRejects(t *testing.T) {
	cfg := testConfig()
	userID := uuid.New()

	t.Run("wrong secret", func(t *testing.T) {
		other := testConfig()
		other.JWT.Secret = "another-secret"
		token, err := IssueToken(other, userID, "+905551234567", "user")
		require.NoError(t, err)

		_, err = ValidateToken(token, cfg)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testConfig()
		other.JWT.Issuer = "someone-else"
		token, err := IssueToken(other, userID, "+905551234567", "user")
		require.NoError(t, err)

		_, err = ValidateToken(token, cfg)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		other := testConfig()
		other.JWT.Expiry = -time.Minute
		token, err := IssueToken(other, userID, "+905551234567", "user")
		require.NoError(t, err)

		_, err = ValidateToken(token, cfg)
		assert.Error(t, err)
	})

	t.Run("missing user id", func(t *testing.T) {
		token, err := IssueToken(cfg, uuid.Nil, "+905551234567", "user")
		require.NoError(t, err)

		_, err = ValidateToken(token, cfg)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ValidateToken("not.a.token", cfg)
		assert.Error(t, err)
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := ExtractTokenFromHeader("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	token, err = ExtractTokenFromHeader("bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = ExtractTokenFromHeader("")
	assert.Error(t, err)

	_, err = ExtractTokenFromHeader("abc123")
	assert.Error(t, err)

	_, err = ExtractTokenFromHeader("Basic abc123")
	assert.Error(t, err)
}

func newAuthedRouter(cfg *config.Config, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, err := GetUserID(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id.String()})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	router := newAuthedRouter(cfg)
	userID := uuid.New()

	t.Run("valid token passes", func(t *testing.T) {
		token, err := IssueToken(cfg, userID, "+905551234567", "user")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("missing header rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := testConfig()
		expired.JWT.Expiry = -time.Minute
		token, err := IssueToken(expired, userID, "+905551234567", "user")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "expired")
	})
}

func TestRequireStaff(t *testing.T) {
	cfg := testConfig()
	router := newAuthedRouter(cfg, RequireStaff())

	tests := []struct {
		role string
		want int
	}{
		{"admin", http.StatusOK},
		{"moderator", http.StatusOK},
		{"user", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tt := range tests {
		token, err := IssueToken(cfg, uuid.New(), "+905551234567", tt.role)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, tt.want, w.Code, "role %q", tt.role)
	}
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", GetClientIP(c))

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", GetClientIP(c))
}
