package notifications

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/album-notify/internal/http/middleware"
	"github.com/princekumarofficial/album-notify/internal/livefeed"
	"github.com/princekumarofficial/album-notify/internal/storage"
	"github.com/princekumarofficial/album-notify/internal/types"
	"github.com/princekumarofficial/album-notify/internal/utils/response"
)

// Store is the notification store surface the handlers need
type Store interface {
	GetNotification(ctx context.Context, id string) (types.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]types.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, id string) error
}

var errForbidden = errors.New("notification belongs to another user")

// List returns the caller's notifications, newest first, with the unread count
// @Summary List notifications
// @Description List the authenticated user's notifications, newest first
// @Tags notifications
// @Produce json
// @Success 200 {object} types.FeedSnapshot "Notifications retrieved successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /notifications [get]
func List(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
			return
		}

		list, err := store.ListNotifications(r.Context(), userID)
		if err != nil {
			slog.Error("Failed to list notifications", slog.String("user_id", userID), slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, errors.New("failed to list notifications"))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Notifications retrieved successfully", livefeed.Project(list)))
	}
}

// MarkRead marks one of the caller's notifications as read
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Response "Notification marked as read"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 404 {object} response.Response "Notification not found"
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func MarkRead(store Store) http.HandlerFunc {
	return ownedAction(store, "Notification marked as read", store.MarkRead)
}

// Delete removes one of the caller's notifications
// @Summary Delete a notification
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Response "Notification deleted"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 404 {object} response.Response "Notification not found"
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func Delete(store Store) http.HandlerFunc {
	return ownedAction(store, "Notification deleted", store.DeleteNotification)
}

// MarkAllRead marks every notification of the caller as read
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce json
// @Success 200 {object} response.Response "All notifications marked as read"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /notifications/read-all [post]
func MarkAllRead(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
			return
		}

		if err := store.MarkAllRead(r.Context(), userID); err != nil {
			slog.Error("Failed to mark notifications read", slog.String("user_id", userID), slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, errors.New("failed to mark notifications read"))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("All notifications marked as read", nil))
	}
}

// ownedAction loads the notification named by the id path value, checks the
// caller owns it and applies action
func ownedAction(store Store, message string, action func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
			return
		}
		id := r.PathValue("id")

		n, err := store.GetNotification(r.Context(), id)
		if err == nil && n.ToUserID != userID {
			err = errForbidden
		}
		if err == nil {
			err = action(r.Context(), id)
		}

		switch {
		case err == nil:
			response.WriteJSON(w, http.StatusOK, response.RequestOK(message, nil))
		case errors.Is(err, storage.ErrNotFound):
			response.WriteError(w, http.StatusNotFound, errors.New("notification not found"))
		case errors.Is(err, errForbidden):
			response.WriteError(w, http.StatusForbidden, err)
		default:
			slog.Error("Notification update failed",
				slog.String("notification_id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, errors.New("failed to update notification"))
		}
	}
}
