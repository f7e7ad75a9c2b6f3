package devbackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/reference"
	"woundtrack-backend/internal/shared/auth"
	"woundtrack-backend/internal/shared/server/middleware"
	"woundtrack-backend/internal/shared/server/respond"
	"woundtrack-backend/internal/wizard"
	"woundtrack-backend/internal/woundapi"
)

const claimsKey = "devClaims"

// Handler exposes the dev backend REST API.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the dev backend routes. Everything except token minting
// requires a token signed with the shared secret.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/token", h.mintToken)

	authed := rg.Group("")
	authed.Use(requireToken)
	authed.GET("/auth/me", h.me)
	authed.GET("/reference/:name", h.reference)
	authed.POST("/images", h.uploadImage)
	authed.GET("/images/:id", h.getImage)
	authed.POST("/wounds", h.createWound)
	authed.GET("/wounds/:id", h.getWound)
	authed.PATCH("/wounds/:id", h.patchWound)
	authed.POST("/tracking-records", h.createTrackingRecord)
}

func requireToken(c *gin.Context) {
	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing access token", nil)
		return
	}
	claims, err := auth.VerifyJWT(token)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, auth.ErrExpiredToken) {
			msg = "token expired"
		}
		respond.Error(c, http.StatusUnauthorized, "unauthorized", msg, nil)
		return
	}
	c.Set(claimsKey, claims)
	c.Set("subject", claims.Sub)
	c.Next()
}

func claimsFrom(c *gin.Context) auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(auth.Claims)
	return claims
}

type tokenRequest struct {
	Sub        string `json:"sub" binding:"required"`
	Role       string `json:"role" binding:"required"`
	Name       string `json:"name"`
	Email      string `json:"email" binding:"omitempty,email"`
	TTLMinutes int    `json:"ttlMinutes" binding:"omitempty,min=1,max=1440"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) mintToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "sub and role are required", nil)
		return
	}
	role, err := wizard.ParseRole(req.Role)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "role must be patient or specialist", nil)
		return
	}

	ttl := 12 * time.Hour
	if req.TTLMinutes > 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}
	now := time.Now().UTC()
	token, err := auth.SignJWT(auth.Claims{
		Sub:   req.Sub,
		Role:  role.String(),
		Name:  req.Name,
		Email: req.Email,
		Iat:   now.Unix(),
		Exp:   now.Add(ttl).Unix(),
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to sign token", nil)
		return
	}
	respond.OK(c, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresIn: int64(ttl / time.Second)})
}

func (h *Handler) me(c *gin.Context) {
	claims := claimsFrom(c)
	respond.OK(c, woundapi.Profile{
		ID:    profileID(claims.Sub),
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	})
}

// profileID extracts the numeric id from subjects shaped like "patient:12".
func profileID(sub string) int64 {
	if i := strings.LastIndex(sub, ":"); i >= 0 {
		sub = sub[i+1:]
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (h *Handler) reference(c *gin.Context) {
	if h.Svc.Catalog == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "unknown reference table", nil)
		return
	}
	opts, err := h.Svc.Catalog.Options(c.Param("name"))
	if err != nil {
		if errors.Is(err, reference.ErrUnknownTable) {
			respond.Error(c, http.StatusNotFound, "not_found", "unknown reference table", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load reference table", nil)
		return
	}
	respond.OK(c, opts)
}

type imageResponse struct {
	ImageID     int64  `json:"image_id"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (h *Handler) uploadImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_format", "file is required", nil)
		return
	}
	f, err := header.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_format", "failed to read file", nil)
		return
	}
	defer f.Close()

	img, err := h.Svc.UploadImage(c.Request.Context(), claimsFrom(c).Sub, header.Filename,
		header.Header.Get("Content-Type"), header.Size, f)
	if err != nil {
		fail(c, err)
		return
	}
	respond.Created(c, imageResponse{
		ImageID:     img.ID,
		ContentType: img.ContentType,
		SizeBytes:   img.SizeBytes,
	})
}

func (h *Handler) getImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	img, rc, err := h.Svc.OpenImage(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, img.SizeBytes, img.ContentType, rc, nil)
}

func (h *Handler) createWound(c *gin.Context) {
	var in woundapi.WoundInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	w, err := h.Svc.CreateWound(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	respond.Created(c, toWoundResponse(w))
}

type trackingRecordResponse struct {
	ID        int64           `json:"id"`
	ImageID   *int64          `json:"image_id,omitempty"`
	TrackDate time.Time       `json:"track_date"`
	Payload   json.RawMessage `json:"payload"`
}

type woundDetailResponse struct {
	Wound           woundapi.Wound           `json:"wound"`
	TrackingRecords []trackingRecordResponse `json:"tracking_records"`
}

func (h *Handler) getWound(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	w, records, err := h.Svc.Wound(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	resp := woundDetailResponse{
		Wound:           toWoundResponse(w),
		TrackingRecords: make([]trackingRecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.TrackingRecords = append(resp.TrackingRecords, trackingRecordResponse{
			ID:        rec.ID,
			ImageID:   optionalID(rec.ImageID),
			TrackDate: rec.TrackDate,
			Payload:   rec.Payload,
		})
	}
	respond.OK(c, resp)
}

func (h *Handler) patchWound(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch woundapi.WoundPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	if err := h.Svc.PatchWound(c.Request.Context(), id, patch); err != nil {
		fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) createTrackingRecord(c *gin.Context) {
	var in woundapi.TrackingRecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	rec, err := h.Svc.CreateTrackingRecord(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	respond.Created(c, woundapi.TrackingRecord{
		TrackingRecordID: rec.ID,
		ImageID:          optionalID(rec.ImageID),
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func toWoundResponse(w Wound) woundapi.Wound {
	return woundapi.Wound{
		ID:        w.ID,
		PatientID: w.PatientID,
		Region:    w.Region,
		Subregion: w.Subregion,
		WoundType: w.WoundType,
		StartDate: w.StartDate.Format(dateLayout),
		ImageID:   optionalID(w.ImageID),
	}
}

func optionalID(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, ErrInvalidFormat):
		respond.Error(c, http.StatusBadRequest, "invalid_format", "only image files are accepted", nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "image_too_large", "image exceeds the upload limit", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
