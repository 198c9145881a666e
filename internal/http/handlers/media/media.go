package media

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/album-notify/internal/http/middleware"
	"github.com/princekumarofficial/album-notify/internal/notify"
	mediaService "github.com/princekumarofficial/album-notify/internal/services/media"
	"github.com/princekumarofficial/album-notify/internal/types"
	mediaTypes "github.com/princekumarofficial/album-notify/internal/types/media"
	"github.com/princekumarofficial/album-notify/internal/utils/response"
)

// Uploads is the media service surface used by the handlers
type Uploads interface {
	GeneratePresignedUploadURL(ctx context.Context, albumID, contentType string) (*mediaService.UploadInfo, error)
	ConfirmUpload(ctx context.Context, albumID, objectKey string) (mediaTypes.StoredObject, types.MediaKind, error)
}

// Ingester accepts confirmed uploads into the notification batcher
type Ingester interface {
	Ingest(ev notify.MediaEvent) error
}

// Confirmations remembers which object keys were already confirmed
type Confirmations interface {
	ClaimConfirmation(ctx context.Context, objectKey string, ttl time.Duration) (bool, error)
}

var ErrAlreadyConfirmed = errors.New("upload was already confirmed")

type MediaHandlers struct {
	uploads       Uploads
	batcher       Ingester
	confirmations Confirmations
	confirmedTTL  time.Duration
	validate      *validator.Validate
}

// ConfirmUploadResponse is returned once an upload has been queued for notification
type ConfirmUploadResponse struct {
	mediaTypes.StoredObject
	Kind    types.MediaKind `json:"kind"`
	AlbumID string          `json:"album_id"`
}

// NewMediaHandlers creates a new media handlers instance. Each object key is
// ingested at most once per confirmedTTL.
func NewMediaHandlers(uploads Uploads, batcher Ingester, confirmations Confirmations, confirmedTTL time.Duration) *MediaHandlers {
	return &MediaHandlers{
		uploads:       uploads,
		batcher:       batcher,
		confirmations: confirmations,
		confirmedTTL:  confirmedTTL,
		validate:      validator.New(),
	}
}

func (h *MediaHandlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

// GenerateUploadURL generates a presigned URL for adding media to an album
// @Summary Generate presigned upload URL
// @Description Generate a presigned URL for uploading a photo or video into an album
// @Tags media
// @Accept json
// @Produce json
// @Param albumID path string true "Album ID"
// @Param request body media.UploadURLRequest true "Upload URL request"
// @Success 200 {object} mediaService.UploadInfo "Upload URL generated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /albums/{albumID}/media/upload-url [post]
func (h *MediaHandlers) GenerateUploadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		albumID := r.PathValue("albumID")

		var req mediaTypes.UploadURLRequest
		if !h.decode(w, r, &req) {
			return
		}

		info, err := h.uploads.GeneratePresignedUploadURL(r.Context(), albumID, req.ContentType)
		if err != nil {
			if errors.Is(err, mediaService.ErrContentTypeNotAllowed) {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			}
			slog.Error("Failed to generate upload URL",
				slog.String("album_id", albumID),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate upload URL")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload URL generated successfully", info))
	}
}

// ConfirmUpload records a finished upload and queues it for the album members' notification batch
// @Summary Confirm an uploaded media item
// @Description Confirm that a photo or video was stored; album members are notified once the uploader goes quiet
// @Tags media
// @Accept json
// @Produce json
// @Param albumID path string true "Album ID"
// @Param request body media.ConfirmUploadRequest true "Confirm upload request"
// @Success 202 {object} ConfirmUploadResponse "Upload accepted"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Object belongs to another album"
// @Failure 404 {object} response.Response "Object not found"
// @Failure 409 {object} response.Response "Upload already confirmed"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /albums/{albumID}/media/confirm [post]
func (h *MediaHandlers) ConfirmUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		albumID := r.PathValue("albumID")

		var req mediaTypes.ConfirmUploadRequest
		if !h.decode(w, r, &req) {
			return
		}

		obj, kind, err := h.uploads.ConfirmUpload(r.Context(), albumID, req.ObjectKey)
		switch {
		case err == nil:
		case errors.Is(err, mediaService.ErrForeignObject):
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(err))
			return
		case errors.Is(err, mediaService.ErrObjectNotFound):
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
			return
		case errors.Is(err, mediaService.ErrTooLarge), errors.Is(err, mediaService.ErrContentTypeNotAllowed):
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		default:
			slog.Error("Failed to confirm upload",
				slog.String("album_id", albumID),
				slog.String("object_key", req.ObjectKey),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to confirm upload")))
			return
		}

		claimed, err := h.confirmations.ClaimConfirmation(r.Context(), obj.ObjectKey, h.confirmedTTL)
		if err != nil {
			slog.Error("Failed to record upload confirmation",
				slog.String("object_key", obj.ObjectKey),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to confirm upload")))
			return
		}
		if !claimed {
			response.WriteJSON(w, http.StatusConflict, response.GeneralError(ErrAlreadyConfirmed))
			return
		}

		recipients := slices.DeleteFunc(slices.Clone(req.MemberIDs), func(id string) bool {
			return id == userID
		})

		err = h.batcher.Ingest(notify.MediaEvent{
			ActorID:    userID,
			AlbumID:    albumID,
			AlbumTitle: req.AlbumTitle,
			Kind:       kind,
			Recipients: recipients,
		})
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusAccepted, response.RequestOK("Upload accepted", ConfirmUploadResponse{
			StoredObject: obj,
			Kind:         kind,
			AlbumID:      albumID,
		}))
	}
}
