package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo.jpg", sanitizeFilename("photo.jpg"))
	assert.Equal(t, "photo.jpg", sanitizeFilename("../../etc/photo.jpg"))
	assert.Equal(t, "my_car_1.jpeg", sanitizeFilename("my car&1.jpeg"))
	assert.Equal(t, "upload", sanitizeFilename(""))
	assert.Equal(t, "_", sanitizeFilename("é"))
}

func TestPublicURL_CustomBase(t *testing.T) {
	s := &s3Storage{cfg: &config.Config{ImageBaseS3URL: "https://cdn.example.com/"}}

	assert.Equal(t, "https://cdn.example.com/listings/a/b/photo.jpg", s.PublicURL("listings/a/b/photo.jpg"))
}

func TestPublicURL_FallsBackToBucketURL(t *testing.T) {
	s := &s3Storage{cfg: &config.Config{AwsS3Bucket: "marketplace-photos", AwsRegion: "eu-west-1"}}

	assert.Equal(t, "https://marketplace-photos.s3.eu-west-1.amazonaws.com/listings/a/b/photo.jpg",
		s.PublicURL("listings/a/b/photo.jpg"))
}
