package media

import "time"

// UploadURLRequest asks for a presigned upload URL inside an album
type UploadURLRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// ConfirmUploadRequest reports that an object was stored and should be announced to the album
type ConfirmUploadRequest struct {
	ObjectKey  string   `json:"object_key" validate:"required"`
	AlbumTitle string   `json:"album_title" validate:"required"`
	MemberIDs  []string `json:"member_ids" validate:"required,min=1,dive,required"`
}

// StoredObject describes a confirmed media object
type StoredObject struct {
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
