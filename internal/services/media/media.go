package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/album-notify/internal/config"
	"github.com/princekumarofficial/album-notify/internal/types"
	mediaTypes "github.com/princekumarofficial/album-notify/internal/types/media"
)

var (
	ErrContentTypeNotAllowed = errors.New("content type is not allowed")
	ErrObjectNotFound        = errors.New("media object not found")
	ErrForeignObject         = errors.New("object does not belong to this album")
	ErrTooLarge              = errors.New("media object exceeds the size limit")
)

// ObjectStore is the subset of the MinIO client the service uses
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PresignedPutObject(ctx context.Context, bucketName, objectName string, expires time.Duration) (*url.URL, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type Service struct {
	store      ObjectStore
	bucketName string
	config     config.Media
	clock      clock.Clock
}

type UploadInfo struct {
	ObjectKey   string `json:"object_key"`
	UploadURL   string `json:"upload_url"`
	ExpiresAt   int64  `json:"expires_at"`
	MaxFileSize int64  `json:"max_file_size"`
	ContentType string `json:"content_type"`
}

// NewService connects to MinIO and makes sure the media bucket exists
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := NewServiceWithStore(client, cfg.MinIO.BucketName, cfg.Media, clock.WallClock)
	if err := service.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

// NewServiceWithStore builds a service on an existing object store
func NewServiceWithStore(store ObjectStore, bucketName string, cfg config.Media, clk clock.Clock) *Service {
	return &Service{
		store:      store,
		bucketName: bucketName,
		config:     cfg,
		clock:      clk,
	}
}

func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.store.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.store.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// KindForContentType classifies a MIME type as a photo or a video
func KindForContentType(contentType string) (types.MediaKind, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return types.MediaPhoto, true
	case strings.HasPrefix(mediaType, "video/"):
		return types.MediaVideo, true
	default:
		return "", false
	}
}

// ValidateContentType checks if the content type is allowed
func (s *Service) ValidateContentType(contentType string) bool {
	if _, ok := KindForContentType(contentType); !ok {
		return false
	}
	return slices.Contains(s.config.AllowedMimeTypes, contentType)
}

// AlbumPrefix is the object key prefix of every media item in albumID
func AlbumPrefix(albumID string) string {
	return fmt.Sprintf("albums/%s/media/", albumID)
}

var knownExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/heic":      ".heic",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
}

// GenerateObjectKey creates a unique object key inside the album folder
func (s *Service) GenerateObjectKey(albumID, contentType string) string {
	ext, ok := knownExtensions[contentType]
	if !ok {
		if extensions, err := mime.ExtensionsByType(contentType); err == nil && len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	return AlbumPrefix(albumID) + uuid.New().String() + ext
}

// GeneratePresignedUploadURL creates a presigned PUT URL for one album item
func (s *Service) GeneratePresignedUploadURL(ctx context.Context, albumID, contentType string) (*UploadInfo, error) {
	if !s.ValidateContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, contentType)
	}

	objectKey := s.GenerateObjectKey(albumID, contentType)
	expiry := time.Duration(s.config.PresignedURLTTL) * time.Second

	presignedURL, err := s.store.PresignedPutObject(ctx, s.bucketName, objectKey, expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &UploadInfo{
		ObjectKey:   objectKey,
		UploadURL:   presignedURL.String(),
		ExpiresAt:   s.clock.Now().Add(expiry).Unix(),
		MaxFileSize: s.config.MaxFileSize,
		ContentType: contentType,
	}, nil
}

// ConfirmUpload checks that objectKey was uploaded into albumID and returns
// the stored object with its media kind. Oversized objects are removed.
func (s *Service) ConfirmUpload(ctx context.Context, albumID, objectKey string) (mediaTypes.StoredObject, types.MediaKind, error) {
	cleaned := path.Clean(objectKey)
	if cleaned != objectKey || !strings.HasPrefix(objectKey, AlbumPrefix(albumID)) {
		return mediaTypes.StoredObject{}, "", ErrForeignObject
	}

	info, err := s.store.StatObject(ctx, s.bucketName, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return mediaTypes.StoredObject{}, "", ErrObjectNotFound
		}
		return mediaTypes.StoredObject{}, "", fmt.Errorf("failed to stat object %s: %w", objectKey, err)
	}

	kind, ok := KindForContentType(info.ContentType)
	if !ok {
		return mediaTypes.StoredObject{}, "", fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, info.ContentType)
	}

	if s.config.MaxFileSize > 0 && info.Size > s.config.MaxFileSize {
		if err := s.DeleteObject(ctx, objectKey); err != nil {
			return mediaTypes.StoredObject{}, "", err
		}
		return mediaTypes.StoredObject{}, "", ErrTooLarge
	}

	return mediaTypes.StoredObject{
		ObjectKey:   objectKey,
		ContentType: info.ContentType,
		Size:        info.Size,
		UploadedAt:  info.LastModified,
	}, kind, nil
}

// DeleteObject removes an object from storage
func (s *Service) DeleteObject(ctx context.Context, objectKey string) error {
	if err := s.store.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectKey, err)
	}
	return nil
}
