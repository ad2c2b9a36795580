package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Mufassa12/contrivance/internal/application/auth"
	domainAuth "github.com/Mufassa12/contrivance/internal/domain/auth"
)

const (
	// ClaimsContextKey is the key used to store validated claims in gin context
	ClaimsContextKey = "claims"
	// UserContextKey is the key used to store the authenticated user in gin context
	UserContextKey = "user"
)

// AuthMiddleware creates a middleware that validates a bearer access token
// and loads the authenticated user into the request context.
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		user, err := authService.GetUser(c.Request.Context(), userID)
		if err != nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or inactive"})
			c.Abort()
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Set(UserContextKey, user)
		c.Next()
	}
}

// RequireAdmin is a middleware that requires administrator role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUserFromContext(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found in context"})
			c.Abort()
			return
		}

		if !user.IsAdministrator() {
			c.JSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserFromContext retrieves the authenticated user from the gin context
func GetUserFromContext(c *gin.Context) *domainAuth.User {
	if user, exists := c.Get(UserContextKey); exists {
		if u, ok := user.(*domainAuth.User); ok {
			return u
		}
	}
	return nil
}

// GetClaimsFromContext retrieves the validated claims from the gin context
func GetClaimsFromContext(c *gin.Context) *domainAuth.Claims {
	if claims, exists := c.Get(ClaimsContextKey); exists {
		if cl, ok := claims.(*domainAuth.Claims); ok {
			return cl
		}
	}
	return nil
}
