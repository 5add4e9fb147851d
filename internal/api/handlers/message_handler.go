package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api/middleware"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/services"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	messageService services.IMessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService services.IMessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type createMessageRequest struct {
	ThreadID string `json:"threadId"`
	Body     string `json:"body"`
}

// CreateMessage handles POST /v1/messages: append a message to an existing
// thread the caller participates in.
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
		return
	}
	if req.ThreadID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threadId is required."})
		return
	}
	if _, err := uuid.Parse(req.ThreadID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found."})
		return
	}

	message, err := h.messageService.AppendMessage(c.Request.Context(), userID, req.ThreadID, req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// RegisterMessageRoutes wires the message endpoints. All require a session.
func RegisterMessageRoutes(r *gin.Engine, handler *MessageHandler, requireSession gin.HandlerFunc) {
	r.POST("/v1/messages", requireSession, handler.CreateMessage)
}
