package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/models"
	"github.com/taoyuan-youth/civic-server/utils"
)

const (
	SessionCookie = "session"
	CtxMember     = "member"
	CtxClaims     = "sessionClaims"
)

// RequireSession validates the session cookie, loads the member and injects
// both into the context. 401 when the cookie is missing or stale.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, member, ok := resolveSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authenticated"})
			return
		}
		c.Set(CtxClaims, claims)
		c.Set(CtxMember, member)
		c.Next()
	}
}

// OptionalSession injects the member when a valid cookie is present and lets
// anonymous requests through untouched.
func OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, member, ok := resolveSession(c); ok {
			c.Set(CtxClaims, claims)
			c.Set(CtxMember, member)
		}
		c.Next()
	}
}

func resolveSession(c *gin.Context) (*utils.SessionClaims, models.Member, bool) {
	var member models.Member

	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		return nil, member, false
	}
	claims, err := utils.VerifySessionToken(raw)
	if err != nil {
		return nil, member, false
	}
	if err := config.DB.First(&member, claims.MemberID).Error; err != nil {
		return nil, member, false
	}
	return claims, member, true
}
