package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cinema-ticketing-backend/internal/logging"
	"cinema-ticketing-backend/internal/models"
	"cinema-ticketing-backend/internal/repository"
	"cinema-ticketing-backend/internal/revocation"
	"cinema-ticketing-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const claimsKey = "authClaims"

// UserLookup re-confirms that the subject of a token still exists
type UserLookup interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware validates the Bearer access token, checks it was not revoked
// and that its user still exists, then attaches the claims to the context.
func AuthMiddleware(tokens *utils.TokenManager, users UserLookup, denylist revocation.Denylist) gin.HandlerFunc {
	if denylist == nil {
		denylist = revocation.Noop{}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "Access token required")
			return
		}

		claims, err := tokens.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.AbortWithError(c, http.StatusForbidden, "Token expired")
				return
			}
			utils.AbortWithError(c, http.StatusForbidden, "Invalid token")
			return
		}

		revoked, err := denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			// redis being down should not lock everyone out
			logging.FromContext(ctx).Warn("denylist lookup failed", "error", err)
		}
		if revoked {
			utils.AbortWithError(c, http.StatusUnauthorized, "Token has been revoked")
			return
		}

		if _, err := users.FindUserByID(ctx, claims.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				utils.AbortWithError(c, http.StatusUnauthorized, "User not found or deactivated")
				return
			}
			logging.FromContext(ctx).Error("failed to verify token subject", "user_id", claims.UserID, "error", err)
			utils.AbortWithError(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the claims attached by AuthMiddleware
func GetClaims(c *gin.Context) (*utils.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}

// Authorize lets the request through only when the caller holds one of roles.
// Role names are compared exactly.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			utils.AbortWithError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		utils.AbortWithError(c, http.StatusForbidden, "Access denied. Required roles: "+strings.Join(roles, ", "))
	}
}
