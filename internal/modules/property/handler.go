package property

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rentara/internal/domain"
	"rentara/internal/pkg/httpauth"
	"rentara/internal/pkg/response"
	"rentara/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublic wires the unauthenticated catalogue endpoints.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/properties", h.List)
	rg.GET("/properties/:id", h.Get)
}

// RegisterRoutes wires the authenticated endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/properties", h.Create)
	rg.GET("/properties/my", h.ListMine)
	rg.PATCH("/properties/:id", h.Update)
	rg.DELETE("/properties/:id", h.Delete)
	rg.POST("/properties/:id/verify", h.Verify)
}

func (h *Handler) Create(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	if caller.Role != domain.RoleLandlord && caller.Role != domain.RoleAdmin {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Landlord access required")
		return
	}

	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, err := h.service.Create(c.Request.Context(), caller.UserID, req)
	if err != nil {
		h.writeError(c, err, "Failed to create property")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"property": p})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load property")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"property": p})
}

func (h *Handler) List(c *gin.Context) {
	f := repository.PropertyFilter{
		City: c.Query("city"),
	}
	if v := c.Query("max_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = price
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = n
		}
	}

	items, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err, "Failed to list properties")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"properties": items})
}

func (h *Handler) ListMine(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	items, err := h.service.ListForLandlord(c.Request.Context(), caller.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to list properties")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"properties": items})
}

func (h *Handler) Update(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, caller.UserID, caller.Role, req)
	if err != nil {
		h.writeError(c, err, "Failed to update property")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"property": p})
}

func (h *Handler) Delete(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, caller.UserID, caller.Role); err != nil {
		h.writeError(c, err, "Failed to delete property")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) Verify(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	if caller.Role != domain.RoleAdmin {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	var req struct {
		Verified *bool `json:"verified"`
	}
	_ = c.ShouldBindJSON(&req)
	verified := true
	if req.Verified != nil {
		verified = *req.Verified
	}

	p, err := h.service.Verify(c.Request.Context(), id, verified)
	if err != nil {
		h.writeError(c, err, "Failed to verify property")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"property": p})
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
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid property data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Property not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not allowed")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
