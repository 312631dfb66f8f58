package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/ikkim/must-canteen/pkg/logger"
)

// Upload folders for images attached to the engine's records.
const (
	FolderReviews = "reviews"
	FolderAvatars = "avatars"
)

// presignExpiry is how long an upload URL stays valid.
const presignExpiry = 15 * time.Minute

var (
	ErrUnsupportedContentType = errors.New("only image files are allowed (JPEG, PNG, GIF, WEBP)")
	ErrUnknownFolder          = errors.New("unknown upload folder")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStorage hands out direct-upload URLs for review photos and avatars.
// The returned FileURL is what gets stored as an image reference.
type ImageStorage interface {
	PresignImageUpload(ctx context.Context, deviceID, folder, filename, contentType string) (*PresignedURLResponse, error)
}

type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

type PresignedURLResponse struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, baseURL string) *S3Storage {
	var cfg aws.Config
	var err error

	// Static keys when configured, otherwise the default credential chain
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				accessKeyID,
				secretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(region),
		)
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = aws.Config{
				Region: region,
			}
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ValidateImage checks the upload folder and content type.
func ValidateImage(folder, contentType string) error {
	if folder != FolderReviews && folder != FolderAvatars {
		return ErrUnknownFolder
	}
	if _, ok := allowedImageTypes[strings.ToLower(contentType)]; !ok {
		return ErrUnsupportedContentType
	}
	return nil
}

// ObjectKey builds "<folder>/<device>/<uuid><ext>". The extension comes from the
// filename, or from the content type when the filename has none.
func ObjectKey(folder, deviceID, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = allowedImageTypes[strings.ToLower(contentType)]
	}
	return fmt.Sprintf("%s/%s/%s%s", folder, deviceID, uuid.New().String(), ext)
}

// PresignImageUpload returns a presigned PUT URL for one image.
func (s *S3Storage) PresignImageUpload(ctx context.Context, deviceID, folder, filename, contentType string) (*PresignedURLResponse, error) {
	if err := ValidateImage(folder, contentType); err != nil {
		return nil, err
	}
	key := ObjectKey(folder, deviceID, filename, contentType)

	presignClient := s3.NewPresignClient(s.client)
	presignedReq, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedURLResponse{
		UploadURL: presignedReq.URL,
		FileURL:   s.fileURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		// CloudFront or custom domain
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}
