package submissions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/shared/server/middleware"
	"woundtrack-backend/internal/shared/server/respond"
)

// Handler exposes the caller's submission journal.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches submission routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/submissions", h.list)
}

type entryResponse struct {
	ID               string    `json:"id"`
	WizardID         string    `json:"wizardId"`
	Role             string    `json:"role"`
	PatientID        int64     `json:"patientId"`
	WoundID          int64     `json:"woundId"`
	TrackingRecordID int64     `json:"trackingRecordId"`
	ImageID          *int64    `json:"imageId,omitempty"`
	LinkStatus       string    `json:"linkStatus"`
	LinkError        string    `json:"linkError,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (h *Handler) list(c *gin.Context) {
	subject := middleware.SubjectFromContext(c)

	var woundID int64
	if v := c.Query("woundId"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "woundId must be a positive integer", nil)
			return
		}
		woundID = parsed
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := h.Svc.List(c.Request.Context(), subject, woundID, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list submissions", nil)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		item := entryResponse{
			ID:               e.ID,
			WizardID:         e.WizardID,
			Role:             e.Role,
			PatientID:        e.PatientID,
			WoundID:          e.WoundID,
			TrackingRecordID: e.TrackingRecordID,
			LinkStatus:       string(e.LinkStatus),
			LinkError:        e.LinkError,
			CreatedAt:        e.CreatedAt,
		}
		if e.ImageID != 0 {
			id := e.ImageID
			item.ImageID = &id
		}
		resp = append(resp, item)
	}
	respond.OK(c, resp)
}
