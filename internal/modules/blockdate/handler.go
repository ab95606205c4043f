package blockdate

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rentara/internal/pkg/httpauth"
	"rentara/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/properties/:id/blocked-dates", h.Create)
	rg.GET("/properties/:id/blocked-dates", h.List)
	rg.PATCH("/blocked-dates/:id", h.Update)
	rg.DELETE("/blocked-dates/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	caller, propertyID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	req.PropertyID = propertyID

	b, err := h.service.Create(c.Request.Context(), caller.UserID, caller.Role, req)
	if err != nil {
		h.writeError(c, err, "Failed to block dates")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"blocked_date": b})
}

func (h *Handler) List(c *gin.Context) {
	_, propertyID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var start, end *time.Time
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			start = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end = &t
		}
	}

	items, err := h.service.ListForProperty(c.Request.Context(), propertyID, start, end)
	if err != nil {
		h.writeError(c, err, "Failed to list blocked dates")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"blocked_dates": items})
}

func (h *Handler) Update(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Update(c.Request.Context(), id, caller.UserID, caller.Role, req)
	if err != nil {
		h.writeError(c, err, "Failed to update blocked dates")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"blocked_date": b})
}

func (h *Handler) Delete(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, caller.UserID, caller.Role); err != nil {
		h.writeError(c, err, "Failed to unblock dates")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
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
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date window")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Property or blocked date not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not allowed")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", "Window conflicts with an active booking")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
