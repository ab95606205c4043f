package payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rentara/internal/domain"
	"rentara/internal/pkg/httpauth"
	"rentara/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the authenticated payment endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:id/payments", h.Process)
	rg.GET("/bookings/:id/payments", h.ListForBooking)
	rg.GET("/payments/my", h.ListMine)
	rg.GET("/payments/stats", h.Stats)
	rg.GET("/payments/refunds", h.ListRefunds)
	rg.GET("/payments/verify/:transactionId", h.Verify)
	rg.GET("/payments/:id", h.Get)
	rg.POST("/payments/:id/refund", h.Refund)
}

// RegisterWebhook wires the gateway callback on an unauthenticated group;
// the gateway does not carry user tokens.
func (h *Handler) RegisterWebhook(rg *gin.RouterGroup) {
	rg.POST("/payments/webhook", h.Webhook)
}

func (h *Handler) Process(c *gin.Context) {
	caller, bookingID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	req.BookingID = bookingID
	req.UserID = caller.UserID
	req.CallerRole = caller.Role

	p, err := h.service.Process(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "Failed to process payment")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"payment": p})
}

func (h *Handler) Verify(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	txnID := c.Param("transactionId")
	if txnID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing transaction id")
		return
	}

	p, err := h.service.Verify(c.Request.Context(), txnID, caller.UserID, caller.Role)
	if err != nil {
		h.writeError(c, err, "Failed to verify payment")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) Webhook(c *gin.Context) {
	var payload WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid webhook payload")
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), payload); err != nil {
		// Unknown transaction stays a 404 so the gateway stops retrying it.
		h.writeError(c, err, "Failed to apply webhook")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"received": true})
}

func (h *Handler) Refund(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	if caller.Role != domain.RoleAdmin && caller.Role != domain.RoleLandlord {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Landlord or admin access required")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, err := h.service.Refund(c.Request.Context(), id, caller.UserID, caller.Role, req)
	if err != nil {
		h.writeError(c, err, "Failed to refund payment")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) Get(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), id, caller.UserID, caller.Role)
	if err != nil {
		h.writeError(c, err, "Failed to load payment")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) ListForBooking(c *gin.Context) {
	caller, bookingID, ok := h.callerAndID(c)
	if !ok {
		return
	}
	items, err := h.service.ListForBooking(c.Request.Context(), bookingID, caller.UserID, caller.Role)
	if err != nil {
		h.writeError(c, err, "Failed to list payments")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"payments": items})
}

func (h *Handler) ListMine(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	items, err := h.service.ListForUser(c.Request.Context(), caller.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to list payments")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"payments": items})
}

func (h *Handler) ListRefunds(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	if caller.Role != domain.RoleAdmin {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}
	items, err := h.service.ListRefunds(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "Failed to list refunds")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"refunds": items})
}

func (h *Handler) Stats(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	if caller.Role != domain.RoleLandlord && caller.Role != domain.RoleAdmin {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Landlord access required")
		return
	}
	stats, err := h.service.StatsForLandlord(c.Request.Context(), caller.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to load stats")
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) callerAndID(c *gin.Context) (httpauth.Caller, int64, bool) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return httpauth.Caller{}, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return httpauth.Caller{}, 0, false
	}
	return caller, id, true
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Payment or booking not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not allowed")
	case errors.Is(err, ErrInvalidState):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_STATE", "Operation not permitted in current payment state")
	case errors.Is(err, ErrGateway):
		response.Error(c, http.StatusBadGateway, "GATEWAY_ERROR", "Payment gateway unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
