package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
)

// IS3Storage defines the interface for object storage operations around
// listing photos.
type IS3Storage interface {
	// GeneratePresignedPutURL creates a pre-signed upload URL for a listing
	// photo. It returns the URL and the generated object key.
	GeneratePresignedPutURL(ctx context.Context, userID, listingID, filename, contentType string) (string, string, error)
	// PublicURL returns the browser-facing URL of an object key.
	PublicURL(key string) string
}

// s3Storage implements IS3Storage.
type s3Storage struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewS3Storage creates a new S3 storage service.
func NewS3Storage(cfg *config.Config) (IS3Storage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	presignClient := s3.NewPresignClient(s3Client)

	return &s3Storage{
		cfg:           cfg,
		s3Client:      s3Client,
		presignClient: presignClient,
	}, nil
}

// sanitizeFilename keeps the base name and replaces anything outside a safe
// character set, so user filenames cannot smuggle path segments into keys.
func sanitizeFilename(filename string) string {
	base := path.Base(filename)
	if base == "." || base == ".." || base == "/" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}

func (s *s3Storage) GeneratePresignedPutURL(ctx context.Context, userID, listingID, filename, contentType string) (string, string, error) {
	objectKey := fmt.Sprintf("listings/%s/%s/%s_%s", userID, listingID, uuid.NewString(), sanitizeFilename(filename))

	expiration := 15 * time.Minute

	presignParams := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}

	presignedReq, err := s.presignClient.PresignPutObject(ctx, presignParams, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}

	return presignedReq.URL, objectKey, nil
}

func (s *s3Storage) PublicURL(key string) string {
	base := strings.TrimSuffix(s.cfg.ImageBaseS3URL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.AwsS3Bucket, s.cfg.AwsRegion)
	}
	return base + "/" + key
}
