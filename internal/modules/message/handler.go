package message

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rentara/internal/pkg/httpauth"
	"rentara/internal/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	service  *Service
	hub      *Hub
	validate func(token string) (userID int64, role string, err error)
}

func NewHandler(service *Service, hub *Hub, validate func(token string) (userID int64, role string, err error)) *Handler {
	return &Handler{service: service, hub: hub, validate: validate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/messages")
	{
		g.POST("/conversations", h.StartConversation)
		g.GET("/conversations", h.ListConversations)
		g.GET("/conversations/:id", h.History)
		g.POST("/conversations/:id", h.Send)
		g.POST("/conversations/:id/read", h.MarkRead)
	}
}

// RegisterWS wires the WebSocket endpoint outside the auth middleware;
// browsers cannot set headers on WebSocket dials, so the token rides the
// query string instead.
func (h *Handler) RegisterWS(rg *gin.RouterGroup) {
	rg.GET("/ws/messages", h.HandleWebSocket)
}

type startConversationRequest struct {
	PropertyID int64 `json:"property_id" binding:"required"`
}

type sendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *Handler) StartConversation(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	conv, err := h.service.StartConversation(c.Request.Context(), req.PropertyID, caller.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to start conversation")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"conversation": conv})
}

func (h *Handler) ListConversations(c *gin.Context) {
	caller, ok := httpauth.CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	items, err := h.service.ListConversations(c.Request.Context(), caller.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to list conversations")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"conversations": items})
}

func (h *Handler) Send(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	m, err := h.service.Send(c.Request.Context(), id, caller.UserID, req.Body)
	if err != nil {
		h.writeError(c, err, "Failed to send message")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"message": m})
}

func (h *Handler) History(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, err := h.service.History(c.Request.Context(), id, caller.UserID, limit)
	if err != nil {
		h.writeError(c, err, "Failed to load messages")
		return
	}
	response.List(c, http.StatusOK, len(items), gin.H{"messages": items})
}

func (h *Handler) MarkRead(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), id, caller.UserID); err != nil {
		h.writeError(c, err, "Failed to mark as read")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"read": true})
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is required")
		return
	}
	userID, _, err := h.validate(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	go pingLoop(conn)

	// The socket is push-only for message delivery; reads just keep the
	// connection alive and detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			return
		}
	}
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
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid message data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Conversation or property not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not a party to this conversation")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
