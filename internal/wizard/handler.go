package wizard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/shared/server/middleware"
	"woundtrack-backend/internal/shared/server/respond"
)

// multipart framing allowance on top of the image ceiling
const uploadOverhead = 1 << 20

// Handler wires wizard routes to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches wizard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/:role/wound/add-update")
	g.POST("", h.start)
	g.GET("/:wizardId", h.state)
	g.DELETE("/:wizardId", h.abandon)
	g.POST("/:wizardId/wound", h.createWound)
	g.PUT("/:wizardId/measurements", h.measurements)
	g.POST("/:wizardId/image", h.upload)
	g.POST("/:wizardId/image/skip", h.skip)
	g.POST("/:wizardId/conduct", h.conduct)
	g.POST("/:wizardId/back", h.back)
}

func (h *Handler) caller(c *gin.Context) (Caller, bool) {
	role, err := ParseRole(c.Param("role"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "unknown role", gin.H{"role": c.Param("role")})
		return Caller{}, false
	}
	if id := c.Param("wizardId"); id != "" {
		c.Set(middleware.KeyWizardID, id)
	}
	return Caller{
		Subject: middleware.SubjectFromContext(c),
		Token:   middleware.AccessTokenFromContext(c),
		Role:    role,
	}, true
}

func (h *Handler) start(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req StartInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	st, err := h.Svc.Start(c.Request.Context(), caller, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.KeyWizardID, st.WizardID)
	h.setWound(c, st)
	c.Set(middleware.KeyStepTransition, "enter->"+string(st.Step))
	respond.Created(c, toStateResponse(st))
}

func (h *Handler) state(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	st, err := h.Svc.State(c.Request.Context(), caller, c.Param("wizardId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setWound(c, st)
	respond.JSON(c, http.StatusOK, toStateResponse(st))
}

func (h *Handler) abandon(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	if err := h.Svc.Abandon(c.Request.Context(), caller, c.Param("wizardId")); err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.KeyStepTransition, "abandon")
	respond.NoContent(c)
}

func (h *Handler) createWound(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var form WoundForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	st, err := h.Svc.CreateWound(c.Request.Context(), caller, c.Param("wizardId"), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setWound(c, st)
	respond.Created(c, toStateResponse(st))
}

func (h *Handler) measurements(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	form := NewMeasurementsForm(caller.Role)
	if err := c.ShouldBindJSON(form); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", gin.H{"reason": err.Error()})
		return
	}
	st, err := h.Svc.SubmitMeasurements(c.Request.Context(), caller, c.Param("wizardId"), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setWound(c, st)
	c.Set(middleware.KeyStepTransition, string(StepMeasurements)+"->"+string(st.Step))
	respond.JSON(c, http.StatusOK, toStateResponse(st))
}

func (h *Handler) upload(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.maxImageBytes()+uploadOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, ErrImageTooLarge)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	img := Image{
		FileName:    fileHeader.Filename,
		ContentType: DetectContentType(fileHeader.Header.Get("Content-Type"), head[:n]),
		Size:        fileHeader.Size,
		Body:        file,
	}
	st, err := h.Svc.UploadImage(c.Request.Context(), caller, c.Param("wizardId"), img)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setWound(c, st)
	c.Set(middleware.KeyStepTransition, string(StepPhoto)+"->"+string(st.Step))
	respond.JSON(c, http.StatusOK, toStateResponse(st))
}

func (h *Handler) skip(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	res, err := h.Svc.SkipImage(c.Request.Context(), caller, c.Param("wizardId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setWound(c, res.State)
	if res.Confirmed {
		c.Set(middleware.KeyStepTransition, string(StepPhoto)+"->"+string(res.State.Step))
	}
	respond.JSON(c, http.StatusOK, skipResponse{
		stateResponse: toStateResponse(res.State),
		Confirmed:     res.Confirmed,
		Warning:       res.Warning,
	})
}

func (h *Handler) conduct(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var form ConductForm
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&form); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	res, err := h.Svc.SubmitConduct(c.Request.Context(), caller, c.Param("wizardId"), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.KeyWoundID, strconv.FormatInt(res.WoundID, 10))
	c.Set(middleware.KeyStepTransition, string(StepConduct)+"->"+string(StepDone))
	respond.Created(c, toResultResponse(res))
}

func (h *Handler) back(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	st, err := h.Svc.Back(c.Request.Context(), caller, c.Param("wizardId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setWound(c, st)
	c.Set(middleware.KeyStepTransition, "back->"+string(st.Step))
	respond.JSON(c, http.StatusOK, toStateResponse(st))
}

func (h *Handler) setWound(c *gin.Context, st State) {
	if id := st.Draft.Context.WoundID; id != 0 {
		c.Set(middleware.KeyWoundID, strconv.FormatInt(id, 10))
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	var verr *ValidationError
	var rerr *RequestError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "Please correct the highlighted fields.", verr.Fields)
	case errors.As(err, &rerr):
		if errors.Is(rerr, ErrSessionExpired) {
			respond.SessionExpired(c, rerr.Message)
			return
		}
		respond.Error(c, requestStatus(rerr), rerr.Code, rerr.Message, nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "wizard not found", nil)
	case errors.Is(err, ErrMissingWound):
		respond.Error(c, http.StatusPreconditionFailed, "missing_wound", "This update cannot be saved because no wound was selected. Start again from the wound list.", nil)
	case errors.Is(err, ErrNotAnImage):
		respond.Error(c, http.StatusUnsupportedMediaType, "invalid_format", "The selected file is not an image.", nil)
	case errors.Is(err, ErrImageTooLarge):
		limit := h.Svc.maxImageBytes()
		respond.Error(c, http.StatusRequestEntityTooLarge, "image_too_large", fmt.Sprintf("The image is too large. The limit is %d MB.", limit>>20), gin.H{"maxBytes": limit})
	case errors.Is(err, ErrBusy):
		respond.Error(c, http.StatusConflict, "in_progress", "A request for this update is already in progress.", nil)
	case errors.Is(err, ErrWoundAlreadySet):
		respond.Error(c, http.StatusConflict, "wound_already_set", "This update already has a wound.", nil)
	case errors.Is(err, ErrInvalidStep):
		respond.Error(c, http.StatusConflict, "invalid_step", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}

func requestStatus(err *RequestError) int {
	switch err.Code {
	case "invalid_format":
		return http.StatusBadRequest
	case "image_too_large":
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadGateway
	}
}
