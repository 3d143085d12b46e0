package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gatepass/gatepass-server/internal/models"
	"github.com/gatepass/gatepass-server/internal/service"
)

// Handler wires the service into the HTTP surface.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.POST("/api/auth/login", h.Login)

	authorized := router.Group("/api")
	authorized.Use(AuthMiddleware())
	{
		authorized.GET("/accounts", h.ListAccounts)
		authorized.POST("/accounts", h.CreateAccount)
		authorized.GET("/accounts/:id", h.GetAccount)
		authorized.PATCH("/accounts/:id", h.UpdateAccount)

		authorized.GET("/events", h.ListEvents)
		authorized.POST("/events", h.CreateEvent)
		authorized.GET("/events/:id", h.GetEvent)
		authorized.PUT("/events/:id", h.UpdateEvent)
		authorized.DELETE("/events/:id", h.DeleteEvent)

		authorized.GET("/events/:id/guests", h.ListGuests)
		authorized.POST("/events/:id/guests", h.UploadGuests)
		authorized.GET("/events/:id/organizers", h.ListEventOrganizers)
		authorized.POST("/events/:id/organizers", h.AssignOrganizer)
		authorized.DELETE("/events/:id/organizers/:organizerId", h.RemoveOrganizer)
		authorized.GET("/events/:id/audit", h.GetAuditLog)

		authorized.DELETE("/guests/:id", h.DeleteGuest)
		authorized.POST("/guests/:id/checkin", h.CheckInGuest)
		authorized.POST("/checkin", h.CheckInByCode)

		authorized.GET("/stats", h.GetStats)
	}
}

// actor resolves the authenticated account for the current request. On
// failure it writes the error response and returns false.
func (h *Handler) actor(c *gin.Context) (*models.Account, bool) {
	accountID := c.MustGet("accountId").(string)
	actor, err := h.svc.ResolveActor(c.Request.Context(), accountID)
	if err != nil {
		h.writeServiceError(c, err)
		return nil, false
	}
	return actor, true
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is an internal error: logged in full,
// reported generically.
func (h *Handler) writeServiceError(c *gin.Context, err error) {
	var validationError *service.ValidationError

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status: "error", Code: "INVALID_CREDENTIALS", Message: err.Error(),
		})
	case errors.Is(err, service.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status: "error", Code: "ACCOUNT_DISABLED", Message: err.Error(),
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status: "error", Code: "FORBIDDEN", Message: err.Error(),
		})
	case errors.Is(err, service.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status: "error", Code: "DUPLICATE_USERNAME", Message: err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status: "error", Code: "NOT_FOUND", Message: err.Error(),
		})
	case errors.Is(err, service.ErrInvalidQuota):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "INVALID_QUOTA", Message: err.Error(),
		})
	case errors.As(err, &validationError):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
	default:
		h.logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status: "error", Code: "INTERNAL", Message: "internal error",
		})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status: "error", Code: "VALIDATION_ERROR", Message: message,
	})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateAccount handles POST /api/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	account, err := h.svc.CreateAccount(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "account": account})
}

// GetAccount handles GET /api/accounts/:id
func (h *Handler) GetAccount(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	account, err := h.svc.GetAccount(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "account": account})
}

// ListAccounts handles GET /api/accounts?role=
func (h *Handler) ListAccounts(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	role, valid := models.ParseRole(c.Query("role"))
	if !valid {
		badRequest(c, "unknown role")
		return
	}

	accounts, err := h.svc.ListAccounts(c.Request.Context(), actor, role)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "accounts": accounts})
}

// UpdateAccount handles PATCH /api/accounts/:id
func (h *Handler) UpdateAccount(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	account, err := h.svc.UpdateAccount(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "account": account})
}

// CreateEvent handles POST /api/events
func (h *Handler) CreateEvent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "event": event})
}

// GetEvent handles GET /api/events/:id
func (h *Handler) GetEvent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	event, err := h.svc.GetEvent(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "event": event})
}

// ListEvents handles GET /api/events
func (h *Handler) ListEvents(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	events, err := h.svc.ListEvents(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "events": events})
}

// UpdateEvent handles PUT /api/events/:id
func (h *Handler) UpdateEvent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "event": event})
}

// DeleteEvent handles DELETE /api/events/:id
func (h *Handler) DeleteEvent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteEvent(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// UploadGuests handles POST /api/events/:id/guests
func (h *Handler) UploadGuests(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.UploadGuestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	resp, err := h.svc.UploadGuests(c.Request.Context(), actor, c.Param("id"), req.Guests)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListGuests handles GET /api/events/:id/guests
func (h *Handler) ListGuests(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	guests, err := h.svc.ListGuests(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "guests": guests})
}

// DeleteGuest handles DELETE /api/guests/:id
func (h *Handler) DeleteGuest(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteGuest(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// CheckInGuest handles POST /api/guests/:id/checkin. Duplicate and Invalid
// are 200s: they are outcomes the scanner UI branches on, not errors.
func (h *Handler) CheckInGuest(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.svc.CheckInGuest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CheckInByCode handles POST /api/checkin with a scanned code in the body.
func (h *Handler) CheckInByCode(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.svc.CheckInByCode(c.Request.Context(), actor, req.QRCode)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AssignOrganizer handles POST /api/events/:id/organizers
func (h *Handler) AssignOrganizer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.AssignOrganizerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.svc.AssignOrganizer(c.Request.Context(), actor, c.Param("id"), req.OrganizerID); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// RemoveOrganizer handles DELETE /api/events/:id/organizers/:organizerId
func (h *Handler) RemoveOrganizer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.svc.RemoveOrganizer(c.Request.Context(), actor, c.Param("id"), c.Param("organizerId")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ListEventOrganizers handles GET /api/events/:id/organizers
func (h *Handler) ListEventOrganizers(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	organizers, err := h.svc.ListEventOrganizers(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "organizers": organizers})
}

// GetAuditLog handles GET /api/events/:id/audit
func (h *Handler) GetAuditLog(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	entries, err := h.svc.GetAuditLog(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "entries": entries})
}

// GetStats handles GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	stats, err := h.svc.GetStats(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
