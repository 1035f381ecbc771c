package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teamkb/teamkb/internal/models"
	"github.com/teamkb/teamkb/internal/tokens"
	"github.com/teamkb/teamkb/pkg/logger"
)

// TokenCookie carries the access token issued at login.
const TokenCookie = "token"

const (
	identityKey = "identity"
	claimsKey   = "claims"
	rawTokenKey = "rawToken"
)

// TokenParser verifies a raw access token.
type TokenParser interface {
	Parse(raw string) (*tokens.Claims, error)
}

// RevocationChecker reports whether a token was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware returns a Gin middleware that accepts the token cookie or a
// Bearer Authorization header. revoked may be nil.
func AuthMiddleware(p TokenParser, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := extractToken(c)
		if !ok {
			unauthorized(c, "Not authorized, no token")
			return
		}

		claims, err := p.Parse(raw)
		if err != nil {
			unauthorized(c, "Not authorized, token failed")
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), raw)
			if err != nil {
				logger.Warnf("auth: revocation check failed: %v", err)
				unauthorized(c, "Not authorized, token could not be verified")
				return
			}
			if isRevoked {
				unauthorized(c, "Not authorized, token revoked")
				return
			}
		}

		c.Set(claimsKey, claims)
		c.Set(rawTokenKey, raw)
		c.Set(identityKey, models.Identity{ID: claims.Subject, Name: claims.Name, Email: claims.Email, Role: claims.Role})
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	if v, err := c.Cookie(TokenCookie); err == nil && v != "" {
		return v, true
	}
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", false
	}
	// Expect 'Bearer <token>'
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}

// IdentityFrom returns the caller set by AuthMiddleware.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

// ClaimsFrom returns the verified token claims, nil on unauthenticated routes.
func ClaimsFrom(c *gin.Context) *tokens.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*tokens.Claims)
	return claims
}

// RawToken returns the access token the request was authenticated with.
func RawToken(c *gin.Context) string {
	return c.GetString(rawTokenKey)
}
