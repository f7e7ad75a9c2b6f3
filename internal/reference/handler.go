package reference

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/shared/server/middleware"
	"woundtrack-backend/internal/shared/server/respond"
)

// Handler exposes reference tables over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches reference routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reference", h.tables)
	rg.GET("/reference/:name", h.get)
}

func (h *Handler) tables(c *gin.Context) {
	respond.OK(c, gin.H{"tables": h.Svc.Catalog.Tables()})
}

func (h *Handler) get(c *gin.Context) {
	name := c.Param("name")

	if c.Query("source") == "local" {
		opts, err := h.Svc.Local(name)
		if err != nil {
			if errors.Is(err, ErrUnknownTable) {
				respond.Error(c, http.StatusNotFound, "not_found", "reference table not found", gin.H{"table": name})
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load reference table", nil)
			return
		}
		respond.OK(c, opts)
		return
	}

	token := middleware.AccessTokenFromContext(c)
	respond.OK(c, h.Svc.Picker(c.Request.Context(), token, name))
}
