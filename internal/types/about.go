package types

import (
	"time"

	"github.com/google/uuid"
)

type (
	AboutTitleCreate struct {
		Title string `json:"title" validate:"required,max=100"`
		Type  string `json:"type"  validate:"required,max=50"`
	}

	// Multipart fields, the optional image travels as a `file` part
	AboutSubtitleWrite struct {
		TitleID      string `form:"title_id"      validate:"required,uuid"`
		Subtitle     string `form:"subtitle"      validate:"required,max=100"`
		DisplayOrder int    `form:"display_order" validate:"gte=0"`
	}

	AboutContentCreate struct {
		SubtitleID   uuid.UUID `json:"subtitle_id"   validate:"required"`
		Content      string    `json:"content"       validate:"required,max=5000"`
		DisplayOrder int       `json:"display_order" validate:"gte=0"`
	}

	AboutTitleResponse struct {
		Subtitles []AboutSubtitleResponse `json:"subtitles"`
		Title     string                  `json:"title"`
		Type      string                  `json:"type"`
		ID        uuid.UUID               `json:"id"`
	}

	AboutSubtitleResponse struct {
		Image        *AboutImageResponse    `json:"image"`
		Contents     []AboutContentResponse `json:"contents"`
		Subtitle     string                 `json:"subtitle"`
		ID           uuid.UUID              `json:"id"`
		TitleID      uuid.UUID              `json:"title_id"`
		DisplayOrder int                    `json:"display_order"`
	}

	AboutImageResponse struct {
		ExpiresAt time.Time `json:"expires_at,omitzero"`
		Name      string    `json:"name"`
		URL       string    `json:"url,omitempty"`
		Size      int64     `json:"size"`
	}

	AboutContentResponse struct {
		Content      string    `json:"content"`
		ID           uuid.UUID `json:"id"`
		SubtitleID   uuid.UUID `json:"subtitle_id"`
		DisplayOrder int       `json:"display_order"`
	}
)
