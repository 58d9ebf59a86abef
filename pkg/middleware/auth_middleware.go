package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/services"
	"github.com/ASHISH26940/vidface-api/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Gin context keys for the authenticated caller.
const (
	UserClaimsContextKey  = "userClaims"
	CurrentUserContextKey = "currentUser"
)

// AuthMiddleware is a Gin middleware to authenticate requests using JWT.
func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Debug("AuthMiddleware: Missing Authorization header.")
			c.Header("WWW-Authenticate", "Bearer")
			utils.AbortWithError(c, http.StatusUnauthorized, "Authorization header required", nil)
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Debugf("AuthMiddleware: Invalid Authorization header format: %s", authHeader)
			c.Header("WWW-Authenticate", "Bearer")
			utils.AbortWithError(c, http.StatusUnauthorized, "Invalid Authorization header format", nil)
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			log.Debugf("AuthMiddleware: Invalid or expired JWT token: %v", err)
			c.Header("WWW-Authenticate", "Bearer")
			utils.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token", err.Error())
			return
		}

		c.Set(UserClaimsContextKey, claims)
		log.Debugf("AuthMiddleware: User %s (ID: %s) authenticated successfully.", claims.Email, claims.UserID.String())
		c.Next()
	}
}

// GetUserClaimsFromContext extracts user claims from Gin context.
func GetUserClaimsFromContext(c *gin.Context) (*services.Claims, bool) {
	claims, exists := c.Get(UserClaimsContextKey)
	if !exists {
		return nil, false
	}
	userClaims, ok := claims.(*services.Claims)
	if !ok {
		return nil, false
	}
	return userClaims, true
}

// UserFinder loads accounts by id.
type UserFinder interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*db.User, error)
}

// ActiveUser loads the token subject and rejects deleted or inactive accounts.
// It must run after AuthMiddleware.
func ActiveUser(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetUserClaimsFromContext(c)
		if !ok {
			log.Error("ActiveUser: User claims not found in context. AuthMiddleware likely wasn't applied.")
			utils.AbortWithError(c, http.StatusInternalServerError, "Authentication error: User session data missing.", nil)
			return
		}

		user, err := users.FindUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Errorf("ActiveUser: Error loading user %s: %v", claims.UserID, err)
			utils.AbortWithError(c, http.StatusInternalServerError, "Failed to load user account", nil)
			return
		}
		if user == nil {
			utils.AbortWithError(c, http.StatusUnauthorized, "Could not validate credentials", nil)
			return
		}
		if !user.IsActive {
			utils.AbortWithError(c, http.StatusForbidden, "Inactive user", nil)
			return
		}

		c.Set(CurrentUserContextKey, user)
		c.Next()
	}
}

// GetCurrentUser returns the account loaded by ActiveUser.
func GetCurrentUser(c *gin.Context) (*db.User, bool) {
	v, exists := c.Get(CurrentUserContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*db.User)
	return user, ok
}
