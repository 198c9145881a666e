package media

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/minio/minio-go/v7"
	"github.com/princekumarofficial/album-notify/internal/config"
	"github.com/princekumarofficial/album-notify/internal/types"
)

type fakeStore struct {
	buckets map[string]bool
	objects map[string]minio.ObjectInfo
	removed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, objects: map[string]minio.ObjectInfo{}}
}

func (f *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeStore) PresignedPutObject(_ context.Context, bucket, object string, _ time.Duration) (*url.URL, error) {
	return url.Parse("http://minio.local/" + bucket + "/" + object + "?X-Amz-Signature=sig")
}

func (f *fakeStore) StatObject(_ context.Context, _, object string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	info, ok := f.objects[object]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", Key: object}
	}
	return info, nil
}

func (f *fakeStore) RemoveObject(_ context.Context, _, object string, _ minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, object)
	delete(f.objects, object)
	return nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := NewServiceWithStore(store, "album-media", config.Media{
		MaxFileSize:      1024,
		PresignedURLTTL:  900,
		AllowedMimeTypes: []string{"image/jpeg", "video/mp4"},
	}, testclock.NewClock(now))
	if err := svc.ensureBucket(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !store.buckets["album-media"] {
		t.Fatal("Expected the bucket to be created")
	}
	return svc, store
}

func TestKindForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		kind        types.MediaKind
		ok          bool
	}{
		{"image/jpeg", types.MediaPhoto, true},
		{"image/heic", types.MediaPhoto, true},
		{"video/mp4", types.MediaVideo, true},
		{"video/quicktime; codecs=hvc1", types.MediaVideo, true},
		{"application/pdf", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		kind, ok := KindForContentType(tt.contentType)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("KindForContentType(%q) = %q, %v; want %q, %v", tt.contentType, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestGeneratePresignedUploadURL(t *testing.T) {
	svc, _ := setupTestService(t)

	info, err := svc.GeneratePresignedUploadURL(context.Background(), "trip", "image/jpeg")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(info.ObjectKey, "albums/trip/media/") || !strings.HasSuffix(info.ObjectKey, ".jpg") {
		t.Fatalf("Unexpected object key %q", info.ObjectKey)
	}
	if !strings.Contains(info.UploadURL, info.ObjectKey) {
		t.Fatalf("Expected the URL to target the object, got %q", info.UploadURL)
	}
	if info.ExpiresAt != now.Add(15*time.Minute).Unix() || info.MaxFileSize != 1024 {
		t.Fatalf("Unexpected upload info %+v", info)
	}

	if _, err := svc.GeneratePresignedUploadURL(context.Background(), "trip", "image/png"); !errors.Is(err, ErrContentTypeNotAllowed) {
		t.Fatalf("Expected ErrContentTypeNotAllowed, got %v", err)
	}
}

func TestConfirmUpload(t *testing.T) {
	svc, store := setupTestService(t)
	ctx := context.Background()

	store.objects["albums/trip/media/a.jpg"] = minio.ObjectInfo{Key: "albums/trip/media/a.jpg", ContentType: "image/jpeg", Size: 100, LastModified: now}
	store.objects["albums/trip/media/b.mp4"] = minio.ObjectInfo{Key: "albums/trip/media/b.mp4", ContentType: "video/mp4", Size: 4096}

	obj, kind, err := svc.ConfirmUpload(ctx, "trip", "albums/trip/media/a.jpg")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if kind != types.MediaPhoto || obj.Size != 100 || !obj.UploadedAt.Equal(now) {
		t.Fatalf("Unexpected result %+v %s", obj, kind)
	}

	if _, _, err := svc.ConfirmUpload(ctx, "trip", "albums/trip/media/missing.jpg"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Expected ErrObjectNotFound, got %v", err)
	}
	if _, _, err := svc.ConfirmUpload(ctx, "other", "albums/trip/media/a.jpg"); !errors.Is(err, ErrForeignObject) {
		t.Fatalf("Expected ErrForeignObject, got %v", err)
	}
	if _, _, err := svc.ConfirmUpload(ctx, "trip", "albums/trip/media/../../other/media/a.jpg"); !errors.Is(err, ErrForeignObject) {
		t.Fatalf("Expected ErrForeignObject for a traversal key, got %v", err)
	}

	if _, _, err := svc.ConfirmUpload(ctx, "trip", "albums/trip/media/b.mp4"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Expected ErrTooLarge, got %v", err)
	}
	if len(store.removed) != 1 || store.removed[0] != "albums/trip/media/b.mp4" {
		t.Fatalf("Expected the oversized object to be removed, got %v", store.removed)
	}
}
