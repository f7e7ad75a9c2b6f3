package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/shared/server/middleware"
	"woundtrack-backend/internal/shared/server/respond"
	"woundtrack-backend/internal/woundapi"
)

// ProfileFetcher resolves the profile behind an access token.
type ProfileFetcher interface {
	Me(ctx context.Context, token string) (woundapi.Profile, error)
}

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup, profiles ProfileFetcher) {
	rg.GET("/me", func(c *gin.Context) {
		meHandler(c, profiles)
	})
}

func meHandler(c *gin.Context, profiles ProfileFetcher) {
	profile, err := profiles.Me(c.Request.Context(), middleware.AccessTokenFromContext(c))
	if err != nil {
		if woundapi.IsUnauthorized(err) {
			respond.SessionExpired(c, "")
			return
		}
		respond.Error(c, http.StatusBadGateway, "backend_unavailable", "could not load your profile", nil)
		return
	}
	respond.OK(c, gin.H{
		"id":      profile.ID,
		"name":    profile.Name,
		"email":   profile.Email,
		"role":    profile.Role,
		"subject": middleware.SubjectFromContext(c),
	})
}
