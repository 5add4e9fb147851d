package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api/middleware"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/services"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/storage"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/tasks"
)

// TaskEnqueuer is the slice of asynq.Client the handler needs, kept as an
// interface so tests can stub the queue.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ListingHandler handles REST requests for listings.
type ListingHandler struct {
	listingService services.IListingService
	storageService storage.IS3Storage
	taskClient     TaskEnqueuer
	cfg            *config.Config
	logger         *zap.Logger
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listingService services.IListingService, storageService storage.IS3Storage, taskClient TaskEnqueuer, cfg *config.Config, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		storageService: storageService,
		taskClient:     taskClient,
		cfg:            cfg,
		logger:         logger,
	}
}

type createListingRequest struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	PriceEUR    *int    `json:"price_eur"`
	Location    *string `json:"location"`
	Condition   *string `json:"condition"`
	Description *string `json:"description"`
}

// CreateListing handles POST /v1/listing.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
		return
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), userID, services.CreateListingInput{
		Title:       req.Title,
		Category:    models.Category(req.Category),
		PriceEUR:    req.PriceEUR,
		Location:    req.Location,
		Condition:   req.Condition,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// listingIDParam validates the :id path parameter.
func listingIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID format"})
		return "", false
	}
	return id, true
}

// GetListingByID handles GET /v1/listing/:id.
func (h *ListingHandler) GetListingByID(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// SearchListings handles GET /v1/listing/search: public browse over active
// listings with keyset pagination.
func (h *ListingHandler) SearchListings(c *gin.Context) {
	query := c.Query("q")
	categoryStr := c.Query("category")
	limitStr := c.DefaultQuery("limit", "24")
	cursor := c.Query("cursor")

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 24
	}

	var queryPtr *string
	if query != "" {
		queryPtr = &query
	}
	var categoryPtr *models.Category
	if categoryStr != "" {
		category := models.Category(categoryStr)
		categoryPtr = &category
	}
	var cursorPtr *string
	if cursor != "" {
		cursorPtr = &cursor
	}

	listings, nextCursor, err := h.listingService.SearchListings(c.Request.Context(), queryPtr, categoryPtr, limit, cursorPtr)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        listings,
		"next_cursor": nextCursor,
	})
}

// UpdateListing handles PATCH /v1/listing/:id (owner only).
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
		return
	}

	listing, err := h.listingService.UpdateListing(c.Request.Context(), listingID, userID, updates)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// MarkSold handles POST /v1/listing/:id/sold (owner only).
func (h *ListingHandler) MarkSold(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	listing, err := h.listingService.MarkSold(c.Request.Context(), listingID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// MarkActive handles POST /v1/listing/:id/active (owner only): relist a sold
// listing.
func (h *ListingHandler) MarkActive(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	listing, err := h.listingService.MarkActive(c.Request.Context(), listingID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// DeleteListing handles DELETE /v1/listing/:id (owner only).
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	if err := h.listingService.DeleteListing(c.Request.Context(), listingID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AccountListings handles GET /v1/account/listings?status=: the seller's own
// listings for one status tab, plus the per-tab counts.
func (h *ListingHandler) AccountListings(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	status := models.ListingStatus(c.DefaultQuery("status", string(models.ListingStatusActive)))
	if status != models.ListingStatusActive && status != models.ListingStatusSold {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be 'active' or 'sold'."})
		return
	}

	listings, err := h.listingService.FindListingsByOwner(c.Request.Context(), userID, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	counts, err := h.listingService.CountListingsByOwner(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   listings,
		"counts": counts,
	})
}

type presignPhotoRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// PresignPhoto handles POST /v1/listing/:id/photos (owner only): hand out a
// pre-signed S3 PUT URL for one photo.
func (h *ListingHandler) PresignPhoto(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	var req presignPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Filename == "" || req.ContentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and content_type are required."})
		return
	}

	// Ownership check; also surfaces 404 for absent listings.
	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !services.CanEditListing(userID, listing) {
		respondServiceError(c, services.ErrNotOwner)
		return
	}
	if len(listing.ImageURLs) >= h.cfg.MaxListingPhotos {
		respondServiceError(c, services.ErrPhotoLimitReached)
		return
	}

	uploadURL, objectKey, err := h.storageService.GeneratePresignedPutURL(c.Request.Context(), userID, listingID, req.Filename, req.ContentType)
	if err != nil {
		h.logger.Error("failed to presign photo upload", zap.String("listing_id", listingID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload_url": uploadURL,
		"key":        objectKey,
	})
}

type attachPhotoRequest struct {
	Key string `json:"key"`
}

// AttachPhoto handles POST /v1/listing/:id/photos/attach (owner only): the
// client finished its presigned upload; enqueue normalization, which appends
// the photo to the listing once processed.
func (h *ListingHandler) AttachPhoto(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	var req attachPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required."})
		return
	}

	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !services.CanEditListing(userID, listing) {
		respondServiceError(c, services.ErrNotOwner)
		return
	}

	// The API can run without Redis in development; photo processing is the
	// one listing endpoint that needs the queue.
	if h.taskClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo processing is unavailable."})
		return
	}

	task, err := tasks.NewImageProcessTask(req.Key, listingID)
	if err != nil {
		h.logger.Error("failed to build image task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue photo"})
		return
	}
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		h.logger.Error("failed to enqueue image task", zap.String("listing_id", listingID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue photo"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

// Viewer handles GET /v1/listing/:id/viewer: what the current viewer may do
// with the listing's contact surface. Works with or without a session.
func (h *ListingHandler) Viewer(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}
	userID := c.GetString(middleware.ContextKeyUserID)

	role, err := h.listingService.ViewerRoleFor(c.Request.Context(), listingID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

// RegisterListingRoutes wires the listing endpoints.
func RegisterListingRoutes(r *gin.Engine, handler *ListingHandler, requireSession gin.HandlerFunc) {
	r.GET("/v1/listing/search", handler.SearchListings)
	r.GET("/v1/listing/:id", handler.GetListingByID)
	r.GET("/v1/listing/:id/viewer", handler.Viewer)

	r.POST("/v1/listing", requireSession, handler.CreateListing)
	r.PATCH("/v1/listing/:id", requireSession, handler.UpdateListing)
	r.POST("/v1/listing/:id/sold", requireSession, handler.MarkSold)
	r.POST("/v1/listing/:id/active", requireSession, handler.MarkActive)
	r.DELETE("/v1/listing/:id", requireSession, handler.DeleteListing)
	r.GET("/v1/account/listings", requireSession, handler.AccountListings)
	r.POST("/v1/listing/:id/photos", requireSession, handler.PresignPhoto)
	r.POST("/v1/listing/:id/photos/attach", requireSession, handler.AttachPhoto)
}
