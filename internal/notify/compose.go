package notify

import (
	"fmt"

	"github.com/princekumarofficial/album-notify/internal/types"
)

// Compose builds the notification type, title and message for a flushed batch.
// Mixed batches are tagged photo-added; consumers filter on that tag.
func Compose(b PendingBatch, actorName string) (types.NotificationType, string, string) {
	kind := types.NotificationVideoAdded
	if b.PhotoCount > 0 {
		kind = types.NotificationPhotoAdded
	}

	switch {
	case b.PhotoCount > 0 && b.VideoCount > 0:
		return kind, "New Media", fmt.Sprintf("%s added %d photo(s) and %d video(s) to %s",
			actorName, b.PhotoCount, b.VideoCount, b.AlbumTitle)
	case b.PhotoCount > 0:
		return kind, titleFor("Photo", b.PhotoCount), messageFor(actorName, "photo", b.PhotoCount, b.AlbumTitle)
	default:
		return kind, titleFor("Video", b.VideoCount), messageFor(actorName, "video", b.VideoCount, b.AlbumTitle)
	}
}

func titleFor(noun string, n uint) string {
	if n == 1 {
		return "New " + noun
	}
	return "New " + noun + "s"
}

func messageFor(actor, noun string, n uint, album string) string {
	if n == 1 {
		return fmt.Sprintf("%s added a %s to %s", actor, noun, album)
	}
	return fmt.Sprintf("%s added %d %ss to %s", actor, n, noun, album)
}
