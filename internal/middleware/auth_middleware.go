package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/farellandr/donatrack/internal/helpers"
	"github.com/farellandr/donatrack/internal/models"
)

// Claims is the JWT payload issued by the login handler.
type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	jwt.RegisteredClaims
}

func JWTAuthMiddleware(secret string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			logger.WarnContext(c.Request.Context(), "Auth failed: missing bearer token",
				"method", c.Request.Method, "path", c.Request.URL.Path)
			helpers.AbortWithError(c, http.StatusUnauthorized, "No token provided")
			return
		}

		claims, err := ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			logger.WarnContext(c.Request.Context(), "Auth failed: invalid or expired token",
				"method", c.Request.Method, "path", c.Request.URL.Path)
			helpers.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("name", claims.Name)
		c.Next()
	}
}

func ParseToken(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return nil, jwt.ErrTokenUnverifiable
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RequireRole must run after JWTAuthMiddleware.
func RequireRole(logger *slog.Logger, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		userRole, _ := role.(models.Role)

		for _, allowed := range roles {
			if userRole == allowed {
				c.Next()
				return
			}
		}

		userID, _ := c.Get("user_id")
		logger.WarnContext(c.Request.Context(), "Auth failed: insufficient permissions",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"userId", userID,
			"role", userRole,
			"allowedRoles", roles,
		)
		helpers.AbortWithError(c, http.StatusForbidden, "Insufficient permissions")
	}
}
