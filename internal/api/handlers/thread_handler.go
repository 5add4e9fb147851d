package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api/middleware"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/services"
)

// ThreadHandler handles conversation thread endpoints.
type ThreadHandler struct {
	threadService services.IThreadService
}

// NewThreadHandler creates a new ThreadHandler.
func NewThreadHandler(threadService services.IThreadService) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

type createThreadRequest struct {
	ListingID string `json:"listingId"`
	Message   string `json:"message"`
}

// CreateThread handles POST /v1/threads: open (or reuse) the caller's
// conversation about a listing and record the opening message. Responds 201
// when a thread was created, 200 when an existing one was reused.
func (h *ThreadHandler) CreateThread(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
		return
	}
	if req.ListingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listingId is required."})
		return
	}
	if _, err := uuid.Parse(req.ListingID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found."})
		return
	}

	thread, created, err := h.threadService.StartThread(c.Request.Context(), userID, req.ListingID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"threadId": thread.ID})
}

// ListThreads handles GET /v1/threads: the caller's inbox, most recently
// active first.
func (h *ThreadHandler) ListThreads(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	threads, err := h.threadService.ListInbox(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// GetThread handles GET /v1/threads/:id: a thread plus its full message
// history, oldest first. Participants only.
func (h *ThreadHandler) GetThread(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	threadID := c.Param("id")
	if _, err := uuid.Parse(threadID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found."})
		return
	}

	thread, messages, err := h.threadService.GetThread(c.Request.Context(), threadID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread, "messages": messages})
}

// RegisterThreadRoutes wires the thread endpoints. All require a session.
func RegisterThreadRoutes(r *gin.Engine, handler *ThreadHandler, requireSession gin.HandlerFunc) {
	group := r.Group("/v1/threads", requireSession)
	group.POST("", handler.CreateThread)
	group.GET("", handler.ListThreads)
	group.GET("/:id", handler.GetThread)
}
