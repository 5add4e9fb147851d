package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/auth"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/email"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/services"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/storage"
)

// Task types.
const (
	TypeMessageNotify = "email:message_notify"
	TypeImageProcess  = "image:process"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// MessageNotifyPayload carries a persisted message that the recipient should
// hear about by email.
type MessageNotifyPayload struct {
	ThreadID    string `json:"thread_id"`
	MessageID   string `json:"message_id"`
	ListingID   string `json:"listing_id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Preview     string `json:"preview"`
}

// ImageTaskPayload identifies an uploaded photo awaiting normalization.
type ImageTaskPayload struct {
	S3Key     string `json:"s3_key"`
	ListingID string `json:"listing_id"`
}

// NewImageProcessTask builds the task enqueued after a photo upload completes.
func NewImageProcessTask(s3Key, listingID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, ListingID: listingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, payload, asynq.Queue("images")), nil
}

// Enqueuer is the slice of asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// taskNotifier implements services.Notifier by enqueuing background tasks.
type taskNotifier struct {
	client Enqueuer
}

// NewNotifier wraps a task client as a services.Notifier.
func NewNotifier(client Enqueuer) services.Notifier {
	return &taskNotifier{client: client}
}

func (n *taskNotifier) MessageSent(ctx context.Context, thread *models.Thread, message *models.Message, recipientID string) error {
	if recipientID == "" {
		return nil
	}
	preview := message.Body
	if runes := []rune(preview); len(runes) > 120 {
		preview = string(runes[:120]) + "…"
	}
	payload, err := json.Marshal(MessageNotifyPayload{
		ThreadID:    thread.ID,
		MessageID:   message.ID,
		ListingID:   thread.ListingID,
		SenderID:    message.SenderID,
		RecipientID: recipientID,
		Preview:     preview,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message notify payload: %w", err)
	}
	_, err = n.client.EnqueueContext(ctx, asynq.NewTask(TypeMessageNotify, payload))
	return err
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks. It holds dependencies needed
// by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	storageService storage.IS3Storage
	listingService services.IListingService
	authProvider   auth.IProvider
	s3Client       *s3.Client
	logger         *zap.Logger
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	storageService storage.IS3Storage,
	listingService services.IListingService,
	authProvider auth.IProvider,
	s3Client *s3.Client,
	logger *zap.Logger,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		storageService: storageService,
		listingService: listingService,
		authProvider:   authProvider,
		s3Client:       s3Client,
		logger:         logger,
	}
}

// SetupServer configures an Asynq server and its handler mux. The caller
// runs the server and owns its shutdown.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux, error) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
				"images":   5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err),
				)
			}),
		},
	)

	mux := asynq.NewServeMux()

	if isBgWorker {
		mux.HandleFunc(TypeMessageNotify, processor.HandleMessageNotifyTask)
		logger.Info("registered background task handlers")
	}
	if isImageWorker {
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		logger.Info("registered image processing task handlers")
	}
	if !isBgWorker && !isImageWorker {
		return nil, nil, fmt.Errorf("no task handlers registered for this run mode")
	}

	return srv, mux, nil
}

// --- Task Handlers ---

// HandleMessageNotifyTask emails the other conversation participant about a
// new message.
func (p *TaskProcessor) HandleMessageNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload MessageNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal message notify payload: %v: %w", err, asynq.SkipRetry)
	}

	recipient, err := p.authProvider.AdminGetUser(ctx, payload.RecipientID)
	if err != nil {
		p.logger.Error("failed to look up notification recipient",
			zap.String("recipient_id", payload.RecipientID), zap.Error(err))
		return err
	}
	if recipient.Email == "" {
		p.logger.Warn("notification recipient has no email", zap.String("recipient_id", payload.RecipientID))
		return fmt.Errorf("recipient has no email: %w", asynq.SkipRetry)
	}

	listingTitle := "your listing"
	if listing, err := p.listingService.FindListingByID(ctx, payload.ListingID); err == nil {
		listingTitle = listing.Title
	}

	subject, body, err := email.RenderTemplate("message_notify", map[string]string{
		"listing_title": listingTitle,
		"preview":       payload.Preview,
		"thread_url":    fmt.Sprintf("/messages/%s", payload.ThreadID),
	})
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	raw := email.BuildRawMessage(p.cfg.SmtpFromAddress, recipient.Email, subject, body)
	if err := p.emailSender.Send(ctx, []string{recipient.Email}, subject, raw); err != nil {
		return err
	}

	p.logger.Info("message notification sent",
		zap.String("thread_id", payload.ThreadID),
		zap.String("recipient_id", payload.RecipientID),
	)
	return nil
}

// HandleImageProcessTask normalizes an uploaded photo and attaches it to its
// listing.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	p.logger.Info("processing image task",
		zap.String("s3_key", payload.S3Key), zap.String("listing_id", payload.ListingID))

	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			p.logger.Warn("uploaded object not found, likely a failed upload", zap.String("s3_key", payload.S3Key))
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	imgData, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}

	// Check size before decoding.
	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		p.logger.Warn("image exceeds max size",
			zap.String("s3_key", payload.S3Key), zap.Int("bytes", len(imgData)))
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	p.logger.Debug("decoded image",
		zap.String("s3_key", payload.S3Key), zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))

	maxWidth := uint(p.cfg.ImageMaxDimension)
	maxHeight := uint(p.cfg.ImageMaxDimension)
	needsResize := uint(img.Bounds().Dx()) > maxWidth || uint(img.Bounds().Dy()) > maxHeight

	processedImageData := imgData
	contentType := aws.ToString(getObjectOutput.ContentType)

	if needsResize {
		resizedImg := resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		processedImageData = buf.Bytes()
		contentType = "image/jpeg"

		if int64(len(processedImageData)) > maxSizeBytes {
			return fmt.Errorf("resized image still exceeds max size: %w", asynq.SkipRetry)
		}
	}

	// Overwrite the original with the normalized version.
	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.AwsS3Bucket),
		Key:         aws.String(payload.S3Key),
		Body:        bytes.NewReader(processedImageData),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	publicURL := p.storageService.PublicURL(payload.S3Key)
	if err := p.listingService.AddImageToListing(ctx, payload.ListingID, publicURL); err != nil {
		if errors.Is(err, services.ErrPhotoLimitReached) || errors.Is(err, services.ErrListingNotFound) {
			p.logger.Warn("dropping processed photo",
				zap.String("listing_id", payload.ListingID), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to update listing with processed image: %w", err)
	}

	p.logger.Info("image task processed",
		zap.String("s3_key", payload.S3Key), zap.String("listing_id", payload.ListingID))
	return nil
}
