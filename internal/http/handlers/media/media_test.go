package media

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/princekumarofficial/album-notify/internal/http/middleware"
	"github.com/princekumarofficial/album-notify/internal/notify"
	mediaService "github.com/princekumarofficial/album-notify/internal/services/media"
	"github.com/princekumarofficial/album-notify/internal/types"
	mediaTypes "github.com/princekumarofficial/album-notify/internal/types/media"
)

type fakeUploads struct {
	objects map[string]types.MediaKind
}

func (f *fakeUploads) GeneratePresignedUploadURL(_ context.Context, albumID, contentType string) (*mediaService.UploadInfo, error) {
	if _, ok := mediaService.KindForContentType(contentType); !ok {
		return nil, mediaService.ErrContentTypeNotAllowed
	}
	key := mediaService.AlbumPrefix(albumID) + "x.jpg"
	return &mediaService.UploadInfo{ObjectKey: key, UploadURL: "http://minio.local/" + key, ContentType: contentType}, nil
}

func (f *fakeUploads) ConfirmUpload(_ context.Context, albumID, objectKey string) (mediaTypes.StoredObject, types.MediaKind, error) {
	if !strings.HasPrefix(objectKey, mediaService.AlbumPrefix(albumID)) {
		return mediaTypes.StoredObject{}, "", mediaService.ErrForeignObject
	}
	kind, ok := f.objects[objectKey]
	if !ok {
		return mediaTypes.StoredObject{}, "", mediaService.ErrObjectNotFound
	}
	return mediaTypes.StoredObject{ObjectKey: objectKey}, kind, nil
}

type recordingBatcher struct {
	events []notify.MediaEvent
}

func (b *recordingBatcher) Ingest(ev notify.MediaEvent) error {
	b.events = append(b.events, ev)
	return nil
}

type memoryConfirmations struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryConfirmations() *memoryConfirmations {
	return &memoryConfirmations{keys: map[string]bool{}}
}

func (c *memoryConfirmations) ClaimConfirmation(_ context.Context, objectKey string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[objectKey] {
		return false, nil
	}
	c.keys[objectKey] = true
	return true, nil
}

func newRouter(h *MediaHandlers) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /albums/{albumID}/media/upload-url", h.GenerateUploadURL())
	mux.HandleFunc("POST /albums/{albumID}/media/confirm", h.ConfirmUpload())
	return mux
}

func do(t *testing.T, handler http.Handler, userID, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGenerateUploadURL(t *testing.T) {
	handler := newRouter(NewMediaHandlers(&fakeUploads{}, &recordingBatcher{}, newMemoryConfirmations(), time.Hour))

	rec := do(t, handler, "u1", "/albums/trip/media/upload-url", mediaTypes.UploadURLRequest{ContentType: "image/jpeg"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "albums/trip/media/") {
		t.Fatalf("Expected an album object key, got %s", rec.Body.String())
	}

	if rec := do(t, handler, "u1", "/albums/trip/media/upload-url", mediaTypes.UploadURLRequest{ContentType: "text/plain"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for a disallowed type, got %d", rec.Code)
	}
	if rec := do(t, handler, "u1", "/albums/trip/media/upload-url", mediaTypes.UploadURLRequest{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for a missing type, got %d", rec.Code)
	}
	if rec := do(t, handler, "", "/albums/trip/media/upload-url", mediaTypes.UploadURLRequest{ContentType: "image/jpeg"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
}

func TestConfirmUpload_QueuesEvent(t *testing.T) {
	uploads := &fakeUploads{objects: map[string]types.MediaKind{
		"albums/trip/media/a.jpg": types.MediaPhoto,
		"albums/trip/media/b.mp4": types.MediaVideo,
	}}
	batcher := &recordingBatcher{}
	handler := newRouter(NewMediaHandlers(uploads, batcher, newMemoryConfirmations(), time.Hour))

	rec := do(t, handler, "u1", "/albums/trip/media/confirm", mediaTypes.ConfirmUploadRequest{
		ObjectKey:  "albums/trip/media/b.mp4",
		AlbumTitle: "Trip",
		MemberIDs:  []string{"u1", "u2", "u3"},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(batcher.events) != 1 {
		t.Fatalf("Expected one queued event, got %d", len(batcher.events))
	}
	ev := batcher.events[0]
	if ev.ActorID != "u1" || ev.AlbumID != "trip" || ev.AlbumTitle != "Trip" || ev.Kind != types.MediaVideo {
		t.Fatalf("Unexpected event %+v", ev)
	}
	if len(ev.Recipients) != 2 || ev.Recipients[0] != "u2" || ev.Recipients[1] != "u3" {
		t.Fatalf("Expected the other members as recipients, got %v", ev.Recipients)
	}
}

func TestConfirmUpload_Errors(t *testing.T) {
	uploads := &fakeUploads{objects: map[string]types.MediaKind{"albums/trip/media/a.jpg": types.MediaPhoto}}
	batcher := &recordingBatcher{}
	handler := newRouter(NewMediaHandlers(uploads, batcher, newMemoryConfirmations(), time.Hour))

	tests := []struct {
		name   string
		path   string
		req    mediaTypes.ConfirmUploadRequest
		status int
	}{
		{
			name:   "missing members",
			path:   "/albums/trip/media/confirm",
			req:    mediaTypes.ConfirmUploadRequest{ObjectKey: "albums/trip/media/a.jpg", AlbumTitle: "Trip"},
			status: http.StatusBadRequest,
		},
		{
			name:   "foreign object",
			path:   "/albums/other/media/confirm",
			req:    mediaTypes.ConfirmUploadRequest{ObjectKey: "albums/trip/media/a.jpg", AlbumTitle: "Other", MemberIDs: []string{"u2"}},
			status: http.StatusForbidden,
		},
		{
			name:   "unknown object",
			path:   "/albums/trip/media/confirm",
			req:    mediaTypes.ConfirmUploadRequest{ObjectKey: "albums/trip/media/zzz.jpg", AlbumTitle: "Trip", MemberIDs: []string{"u2"}},
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, handler, "u1", tt.path, tt.req); rec.Code != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}

	if len(batcher.events) != 0 {
		t.Fatalf("Expected no events for rejected uploads, got %d", len(batcher.events))
	}
}

func TestConfirmUpload_RepeatedConfirmCountsOnce(t *testing.T) {
	uploads := &fakeUploads{objects: map[string]types.MediaKind{"albums/trip/media/a.jpg": types.MediaPhoto}}
	engine := notify.NewEngine(notify.NewLedger(), nil, nil, notify.Config{
		Clock: testclock.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	handler := newRouter(NewMediaHandlers(uploads, engine, newMemoryConfirmations(), time.Hour))

	req := mediaTypes.ConfirmUploadRequest{
		ObjectKey:  "albums/trip/media/a.jpg",
		AlbumTitle: "Trip",
		MemberIDs:  []string{"u2"},
	}
	if rec := do(t, handler, "u1", "/albums/trip/media/confirm", req); rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	for i := 0; i < 2; i++ {
		if rec := do(t, handler, "u1", "/albums/trip/media/confirm", req); rec.Code != http.StatusConflict {
			t.Fatalf("Expected 409 for a repeated confirm, got %d", rec.Code)
		}
	}

	batch, ok := engine.Ledger().Get(notify.BatchKey{ActorID: "u1", AlbumID: "trip"})
	if !ok {
		t.Fatal("Expected a pending batch")
	}
	if batch.PhotoCount != 1 || batch.Total() != 1 {
		t.Fatalf("Expected one photo in the batch, got %d", batch.PhotoCount)
	}
}
