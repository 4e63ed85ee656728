package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/siteworks/backend/internal/infrastructure/auth"
	"github.com/siteworks/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTAuthConfig holds configuration for the JWT middleware
type JWTAuthConfig struct {
	JWTService *auth.JWTService
	// Registry receives the validated token's capability grants so the
	// approval guards can consult them by actor ID
	Registry *auth.CapabilityRegistry
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth creates JWT authentication middleware
func JWTAuth(cfg JWTAuthConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" || !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "Missing or malformed authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("token validation failed",
					zap.Error(err),
					zap.String("path", c.Request.URL.Path),
				)
			}
			abortUnauthorized(c, authErrorMessage(err))
			return
		}

		if cfg.Registry != nil {
			if userID, err := claims.GetUserUUID(); err == nil {
				cfg.Registry.Grant(userID, claims.Capabilities)
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Next()
	}
}

func authErrorMessage(err error) string {
	switch err {
	case auth.ErrExpiredToken:
		return "Token has expired"
	case auth.ErrTokenNotYetValid:
		return "Token is not yet valid"
	}
	return "Invalid token"
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the user ID from JWT claims in context
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}
