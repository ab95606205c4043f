package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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

// RegisterRoutes wires the booking endpoints. All routes assume the auth
// middleware already ran on the group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.Create)
	rg.GET("/bookings/my", h.ListMine)
	rg.GET("/bookings/landlord", h.ListForLandlord)
	rg.GET("/bookings/stats", h.Stats)
	rg.GET("/bookings/:id", h.Get)
	rg.PUT("/bookings/:id", h.Update)
	rg.PUT("/bookings/:id/confirm", h.Confirm)
	rg.PUT("/bookings/:id/complete", h.Complete)
	rg.PUT("/bookings/:id/cancel", h.Cancel)
	rg.DELETE("/bookings/:id", h.Delete)

	rg.POST("/properties/:id/bookings", h.CreateForProperty)
	rg.GET("/properties/:id/bookings", h.ListForProperty)
	rg.GET("/properties/:id/availability", h.CheckAvailability)
}

func (h *Handler) Create(c *gin.Context) {
	h.create(c, 0)
}

// CreateForProperty is the nested form; the property comes from the path.
func (h *Handler) CreateForProperty(c *gin.Context) {
	_, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	h.create(c, id)
}

func (h *Handler) create(c *gin.Context, propertyID int64) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if propertyID > 0 {
		req.PropertyID = propertyID
	}
	if req.PropertyID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "property_id is required")
		return
	}

	req.UserID = caller.UserID
	req.CallerRole = caller.Role

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "Failed to create booking")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) Get(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), id, caller.UserID, caller.Role)
	if err != nil {
		h.writeError(c, err, "Failed to load booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Update(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	b, err := h.service.Update(c.Request.Context(), id, caller.UserID, caller.Role, req)
	if err != nil {
		h.writeError(c, err, "Failed to update booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Confirm(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	b, err := h.service.Confirm(c.Request.Context(), id, caller.UserID, caller.Role)
	if err != nil {
		h.writeError(c, err, "Failed to confirm booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Complete(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	b, err := h.service.Complete(c.Request.Context(), id, caller.UserID, caller.Role)
	if err != nil {
		h.writeError(c, err, "Failed to complete booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Cancel(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	var req CancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	b, err := h.service.Cancel(c.Request.Context(), id, caller.UserID, caller.Role, req.Reason)
	if err != nil {
		h.writeError(c, err, "Failed to cancel booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Delete(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, caller.UserID, caller.Role); err != nil {
		h.writeError(c, err, "Failed to delete booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) ListMine(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	items, err := h.service.ListForUser(c.Request.Context(), caller.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to list bookings")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"bookings": items})
}

func (h *Handler) ListForLandlord(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	if caller.Role != domain.RoleLandlord && caller.Role != domain.RoleAdmin {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Landlord access required")
		return
	}
	items, err := h.service.ListForLandlord(c.Request.Context(), caller.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to list bookings")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"bookings": items})
}

func (h *Handler) ListForProperty(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	items, err := h.service.ListForProperty(c.Request.Context(), id, caller.UserID, caller.Role)
	if err != nil {
		h.writeError(c, err, "Failed to list bookings")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"bookings": items})
}

// CheckAvailability answers whether a date range is free without creating
// anything. check_in/check_out come as RFC 3339 dates or date-only strings.
func (h *Handler) CheckAvailability(c *gin.Context) {
	_, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	checkIn, err1 := parseDateParam(c.Query("check_in"))
	checkOut, err2 := parseDateParam(c.Query("check_out"))
	if err1 != nil || err2 != nil || !checkOut.After(checkIn) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in and check_out must be valid dates with check_out after check_in")
		return
	}

	free, err := h.service.IsRangeFree(c.Request.Context(), id, checkIn, checkOut, 0)
	if err != nil {
		h.writeError(c, err, "Failed to check availability")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"property_id": id,
		"check_in":    checkIn,
		"check_out":   checkOut,
		"available":   free,
	})
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
	stats, err := h.service.Stats(c.Request.Context(), caller.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to load stats")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
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

func parseDateParam(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking or property not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not allowed")
	case errors.Is(err, ErrUnavailable):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", "Property is not available for booking")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", "Dates conflict with an existing booking or blocked period")
	case errors.Is(err, ErrInvalidState):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_STATE", "Operation not permitted in current booking state")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
