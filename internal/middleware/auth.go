package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pazargate/internal/config"
	"pazargate/internal/models"
	"pazargate/pkg/response"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey ContextKey = "user_id"
	// PhoneKey is the context key for the authenticated user's phone
	PhoneKey ContextKey = "phone"
	// RoleKey is the context key for the authenticated user's role
	RoleKey ContextKey = "role"
	// TokenKey is the context key for the raw JWT token
	TokenKey ContextKey = "token"
)

// Claims is the JWT claims structure issued by the marketplace backend
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Phone  string    `json:"phone"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens issued by the marketplace backend
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}

		claims, err := ValidateToken(tokenString, cfg)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, "Token has expired")
			} else {
				response.Unauthorized(c, "Invalid token")
			}
			return
		}

		c.Set(string(UserIDKey), claims.UserID)
		c.Set(string(PhoneKey), claims.Phone)
		c.Set(string(RoleKey), claims.Role)
		c.Set(string(TokenKey), tokenString)

		// Also set in request context for use in services
		ctx := context.WithValue(c.Request.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, PhoneKey, claims.Phone)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireStaff aborts with 403 unless the token carries a staff role.
// Must be applied after AuthMiddleware.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetRole(c)
		if err != nil || !models.Role(role).IsStaff() {
			response.Forbidden(c, "Staff role required")
			return
		}
		c.Next()
	}
}

// ValidateToken validates a JWT token string without gin context
func ValidateToken(tokenString string, cfg *config.Config) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	},
		jwt.WithIssuer(cfg.JWT.Issuer),
		jwt.WithAudience(cfg.JWT.Audience),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing user ID in token")
	}

	return claims, nil
}

// IssueToken signs a token for a user. Used by tests and internal tooling;
// production tokens come from the marketplace backend.
func IssueToken(cfg *config.Config, userID uuid.UUID, phone, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Phone:  phone,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWT.Issuer,
			Audience:  jwt.ClaimStrings{cfg.JWT.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWT.Expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}

// ExtractTokenFromHeader extracts the JWT token from an Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("authorization header required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("invalid authorization header format")
	}

	return parts[1], nil
}

// GetUserID retrieves the authenticated user ID from the Gin context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	v, exists := c.Get(string(UserIDKey))
	if !exists {
		return uuid.Nil, fmt.Errorf("user ID not found in context")
	}

	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetPhone retrieves the authenticated phone from the Gin context
func GetPhone(c *gin.Context) (string, error) {
	v, exists := c.Get(string(PhoneKey))
	if !exists {
		return "", fmt.Errorf("phone not found in context")
	}

	phone, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("invalid phone type in context")
	}

	return phone, nil
}

// GetRole retrieves the authenticated role from the Gin context
func GetRole(c *gin.Context) (string, error) {
	v, exists := c.Get(string(RoleKey))
	if !exists {
		return "", fmt.Errorf("role not found in context")
	}

	role, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("invalid role type in context")
	}

	return role, nil
}

// IsAuthenticated checks if the request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(string(UserIDKey))
	return exists
}

// GetClientIP retrieves the client's IP address, honoring proxy headers
func GetClientIP(c *gin.Context) string {
	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	realIP := c.GetHeader("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	return c.ClientIP()
}
