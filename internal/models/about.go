package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/keeper-project/homepage-api/internal/types"
	"github.com/keeper-project/homepage-api/internal/upload"
)

type AboutTitle struct {
	Subtitles []AboutSubtitle `gorm:"foreignKey:TitleID"`
	Title     string
	Type      string
	Model
}

func (AboutTitle) TableName() string {
	return "about_titles"
}

func (t AboutTitle) GetID() uuid.UUID {
	return t.ID
}

type AboutSubtitle struct {
	ImageKey  datatypes.Null[string]
	ImageName datatypes.Null[string]
	ImageSize datatypes.Null[int64]
	Contents  []AboutContent `gorm:"foreignKey:SubtitleID"`
	Subtitle  string
	Model
	TitleID      uuid.UUID
	DisplayOrder int
}

func (AboutSubtitle) TableName() string {
	return "about_subtitles"
}

func (s AboutSubtitle) GetID() uuid.UUID {
	return s.ID
}

// Response without image url, see [AboutSubtitle.ImageURL]
func (s AboutSubtitle) Response() types.AboutSubtitleResponse {
	contents := make([]types.AboutContentResponse, 0, len(s.Contents))
	for _, c := range s.Contents {
		contents = append(contents, c.Response())
	}

	resp := types.AboutSubtitleResponse{
		Contents:     contents,
		Subtitle:     s.Subtitle,
		ID:           s.ID,
		TitleID:      s.TitleID,
		DisplayOrder: s.DisplayOrder,
	}
	if s.ImageKey.Valid {
		resp.Image = &types.AboutImageResponse{Name: s.ImageName.V, Size: s.ImageSize.V}
	}

	return resp
}

// Presigned url of the subtitle image, empty when there is none
func (s AboutSubtitle) ImageURL(ctx context.Context, u upload.Uploader, duration time.Duration) (string, error) {
	ctx, span := tracer.Start(ctx, "AboutSubtitle.ImageURL")
	defer span.End()

	if !s.ImageKey.Valid {
		return "", nil
	}

	span.SetAttributes(attribute.String("object", s.ImageKey.V))

	url, err := u.PresignedReadURL(ctx, s.ImageKey.V, s.ImageName.V, duration)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make image url")
		return "", err
	}

	return url, nil
}

type AboutContent struct {
	Content string
	Model
	SubtitleID   uuid.UUID
	DisplayOrder int
}

func (AboutContent) TableName() string {
	return "about_contents"
}

func (c AboutContent) GetID() uuid.UUID {
	return c.ID
}

func (c AboutContent) Response() types.AboutContentResponse {
	return types.AboutContentResponse{
		Content:      c.Content,
		ID:           c.ID,
		SubtitleID:   c.SubtitleID,
		DisplayOrder: c.DisplayOrder,
	}
}
