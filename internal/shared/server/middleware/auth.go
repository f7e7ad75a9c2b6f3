package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/shared/auth"
	"woundtrack-backend/internal/shared/server/respond"
	"woundtrack-backend/internal/shared/util"
)

const (
	subjectKey     = "subject"
	roleKey        = "role"
	accessTokenKey = "accessToken"
	userNameKey    = "userName"
)

// Session requires a bearer access token and stores the caller identity in context.
// Tokens signed with the shared secret expose their claims; any other token is
// treated as opaque and bound to a hash of itself. The backend remains the
// authority on whether a token is actually valid.
func Session(publicPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			respond.SessionExpired(c, "missing access token")
			return
		}

		c.Set(accessTokenKey, token)
		if claims, err := auth.VerifyJWT(token); err == nil {
			c.Set(subjectKey, claims.Sub)
			if claims.Role != "" {
				c.Set(roleKey, claims.Role)
			}
			if claims.Name != "" {
				c.Set(userNameKey, claims.Name)
			}
		} else {
			c.Set(subjectKey, "token:"+util.TokenFingerprint(token))
		}
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if token == "" {
		return "", false
	}
	return token, true
}

// SubjectFromContext fetches the caller subject set by the session middleware.
func SubjectFromContext(c *gin.Context) string {
	return stringFromContext(c, subjectKey)
}

// RoleFromContext fetches the role claim, if the token carried one.
func RoleFromContext(c *gin.Context) string {
	return stringFromContext(c, roleKey)
}

// AccessTokenFromContext fetches the raw bearer token for forwarding to the backend.
func AccessTokenFromContext(c *gin.Context) string {
	return stringFromContext(c, accessTokenKey)
}

// UserNameFromContext fetches the user name claim, if present.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
