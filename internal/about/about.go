// Package about manages the blocks of the static "about" pages: titles,
// their ordered subtitles with an optional image, and the subtitle contents.
package about

import (
	"context"
	"errors"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/archive"
	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
	"github.com/keeper-project/homepage-api/internal/upload"
	"github.com/keeper-project/homepage-api/internal/validator"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/internal/about")

type Service struct {
	DB       *gorm.DB
	Uploader upload.Uploader
	// Lifetime of presigned image urls
	PresignTTL time.Duration
	now        func() time.Time
}

func New(db *gorm.DB, uploader upload.Uploader, presignTTL time.Duration) *Service {
	return &Service{
		DB:         db,
		Uploader:   uploader,
		PresignTTL: presignTTL,
		now:        time.Now,
	}
}

type Image struct {
	Reader io.ReadSeeker
	Name   string
	Size   int64
}

func notFound(err error, sentinel *apperr.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel.Wrap(err)
	}

	return err
}

func memberAudit(actorID uuid.UUID) audit.Context {
	return audit.Context{MemberID: audit.ID(actorID)}
}

func validateImage(image *Image) error {
	if image == nil || validator.ValidateAttachmentSize(image.Size) {
		return nil
	}

	if image.Size > 0 {
		return apperr.FileTooLarge
	}
	return apperr.InvalidRequest.WithOverride("empty file")
}

func (s *Service) storeImage(ctx context.Context, c audit.Context, subtitleID uuid.UUID, image *Image) (string, error) {
	return archive.StoreFile(ctx, c, s.Uploader, &archive.FileMetadata{
		Reader:   image.Reader,
		Prefix:   path.Join("about", subtitleID.String()),
		Entity:   audit.EntityAboutImage,
		EntityID: subtitleID.String(),
		Size:     image.Size,
	})
}

// Best effort, a dangling object only costs storage
func (s *Service) discardImage(ctx context.Context, c audit.Context, subtitleID uuid.UUID, key string) {
	err := archive.DeleteFile(ctx, c, s.Uploader, key, audit.EntityAboutImage, subtitleID.String())
	if err != nil {
		logger.Logger.WarnContext(ctx, "failed to delete about image",
			"subtitle_id", subtitleID, "object", key, "error", err)
	}
}

func (s *Service) CreateTitle(ctx context.Context, actorID uuid.UUID, req types.AboutTitleCreate) (*models.AboutTitle, error) {
	ctx, span := tracer.Start(ctx, "CreateTitle", trace.WithAttributes(
		attribute.String("member.id", actorID.String()),
		attribute.String("about.type", req.Type),
	))
	defer span.End()

	title := models.AboutTitle{Title: req.Title, Type: req.Type}
	err := s.DB.WithContext(ctx).Omit("Subtitles").Create(&title).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create title")
		return nil, err
	}

	span.SetStatus(codes.Ok, "created title")
	return &title, nil
}

// Deletes a title with everything under it, images after commit
func (s *Service) DeleteTitle(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "DeleteTitle", trace.WithAttributes(
		attribute.String("member.id", actorID.String()),
		attribute.String("title.id", id.String()),
	))
	defer span.End()

	var images []models.AboutSubtitle
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var title models.AboutTitle
		err := tx.First(&title, "id = ?", id).Error
		if err != nil {
			return notFound(err, apperr.AboutTitleNotFound)
		}

		err = tx.Select("id", "image_key").
			Where("title_id = ? AND image_key IS NOT NULL", id).
			Find(&images).Error
		if err != nil {
			return err
		}

		return tx.Delete(&title).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete title")
		return err
	}

	c := memberAudit(actorID)
	for _, sub := range images {
		s.discardImage(ctx, c, sub.ID, sub.ImageKey.V)
	}

	span.SetStatus(codes.Ok, "deleted title")
	return nil
}

func (s *Service) CreateSubtitle(
	ctx context.Context,
	actorID uuid.UUID,
	req types.AboutSubtitleWrite,
	image *Image,
) (*models.AboutSubtitle, error) {
	ctx, span := tracer.Start(ctx, "CreateSubtitle", trace.WithAttributes(
		attribute.String("member.id", actorID.String()),
		attribute.String("title.id", req.TitleID),
		attribute.Bool("image", image != nil),
	))
	defer span.End()

	err := validateImage(image)
	if err != nil {
		span.SetStatus(codes.Error, "invalid image")
		return nil, err
	}

	c := memberAudit(actorID)

	var subtitle models.AboutSubtitle
	var stored string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		titleID, err := s.titleID(ctx, tx, req.TitleID)
		if err != nil {
			return err
		}

		subtitle = models.AboutSubtitle{
			Subtitle:     req.Subtitle,
			TitleID:      titleID,
			DisplayOrder: req.DisplayOrder,
		}
		err = tx.Omit("Contents").Create(&subtitle).Error
		if err != nil {
			return err
		}

		if image == nil {
			return nil
		}

		stored, err = s.storeImage(ctx, c, subtitle.ID, image)
		if err != nil {
			return err
		}

		return s.linkImage(tx, &subtitle, stored, image)
	})
	if err != nil {
		if stored != "" {
			s.discardImage(ctx, c, subtitle.ID, stored)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create subtitle")
		return nil, err
	}

	span.SetAttributes(attribute.String("subtitle.id", subtitle.ID.String()))
	span.SetStatus(codes.Ok, "created subtitle")
	return &subtitle, nil
}

// Rewrites a subtitle. The image is replaced only when a new one is sent.
func (s *Service) ModifySubtitle(
	ctx context.Context,
	actorID uuid.UUID,
	id uuid.UUID,
	req types.AboutSubtitleWrite,
	image *Image,
) (*models.AboutSubtitle, error) {
	ctx, span := tracer.Start(ctx, "ModifySubtitle", trace.WithAttributes(
		attribute.String("member.id", actorID.String()),
		attribute.String("subtitle.id", id.String()),
		attribute.Bool("image", image != nil),
	))
	defer span.End()

	err := validateImage(image)
	if err != nil {
		span.SetStatus(codes.Error, "invalid image")
		return nil, err
	}

	c := memberAudit(actorID)

	var subtitle models.AboutSubtitle
	var stored, previous string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&subtitle, "id = ?", id).Error
		if err != nil {
			return notFound(err, apperr.AboutSubtitleNotFound)
		}

		titleID, err := s.titleID(ctx, tx, req.TitleID)
		if err != nil {
			return err
		}

		subtitle.Subtitle = req.Subtitle
		subtitle.TitleID = titleID
		subtitle.DisplayOrder = req.DisplayOrder
		err = tx.Model(&subtitle).Select("subtitle", "title_id", "display_order").Updates(&subtitle).Error
		if err != nil {
			return err
		}

		if image == nil {
			return nil
		}

		if subtitle.ImageKey.Valid {
			previous = subtitle.ImageKey.V
		}

		stored, err = s.storeImage(ctx, c, subtitle.ID, image)
		if err != nil {
			return err
		}

		return s.linkImage(tx, &subtitle, stored, image)
	})
	if err != nil {
		// same content hashes to the same key
		if stored != "" && stored != previous {
			s.discardImage(ctx, c, id, stored)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to modify subtitle")
		return nil, err
	}

	if previous != "" && previous != stored {
		s.discardImage(ctx, c, id, previous)
	}

	span.SetStatus(codes.Ok, "modified subtitle")
	return &subtitle, nil
}

// Deletes a subtitle with its contents and image, returning what was deleted
func (s *Service) DeleteSubtitle(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*models.AboutSubtitle, error) {
	ctx, span := tracer.Start(ctx, "DeleteSubtitle", trace.WithAttributes(
		attribute.String("member.id", actorID.String()),
		attribute.String("subtitle.id", id.String()),
	))
	defer span.End()

	var subtitle models.AboutSubtitle
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Contents").First(&subtitle, "id = ?", id).Error
		if err != nil {
			return notFound(err, apperr.AboutSubtitleNotFound)
		}

		return tx.Delete(&subtitle).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete subtitle")
		return nil, err
	}

	if subtitle.ImageKey.Valid {
		s.discardImage(ctx, memberAudit(actorID), id, subtitle.ImageKey.V)
	}

	span.SetStatus(codes.Ok, "deleted subtitle")
	return &subtitle, nil
}

func (s *Service) CreateContent(
	ctx context.Context,
	actorID uuid.UUID,
	req types.AboutContentCreate,
) (*models.AboutContent, error) {
	ctx, span := tracer.Start(ctx, "CreateContent", trace.WithAttributes(
		attribute.String("member.id", actorID.String()),
		attribute.String("subtitle.id", req.SubtitleID.String()),
	))
	defer span.End()

	var content models.AboutContent
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := models.Exists[models.AboutSubtitle](ctx, tx, "id = ?", req.SubtitleID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.AboutSubtitleNotFound
		}

		content = models.AboutContent{
			Content:      req.Content,
			SubtitleID:   req.SubtitleID,
			DisplayOrder: req.DisplayOrder,
		}
		return tx.Create(&content).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create content")
		return nil, err
	}

	span.SetStatus(codes.Ok, "created content")
	return &content, nil
}

func (s *Service) DeleteContent(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "DeleteContent", trace.WithAttributes(
		attribute.String("member.id", actorID.String()),
		attribute.String("content.id", id.String()),
	))
	defer span.End()

	result := s.DB.WithContext(ctx).Delete(&models.AboutContent{}, "id = ?", id)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to delete content")
		return result.Error
	}
	if result.RowsAffected == 0 {
		span.SetStatus(codes.Error, "no such content")
		return apperr.AboutContentNotFound
	}

	span.SetStatus(codes.Ok, "deleted content")
	return nil
}

// Every block of one page in display order, images as presigned urls
func (s *Service) ListByType(ctx context.Context, typ string) ([]types.AboutTitleResponse, error) {
	ctx, span := tracer.Start(ctx, "ListByType", trace.WithAttributes(
		attribute.String("about.type", typ),
	))
	defer span.End()

	var titles []models.AboutTitle
	err := s.DB.WithContext(ctx).
		Preload("Subtitles", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order, created_at, id")
		}).
		Preload("Subtitles.Contents", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order, created_at, id")
		}).
		Where("type = ?", typ).
		Order("created_at, id").
		Find(&titles).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list about blocks")
		return nil, err
	}

	expires := s.now().Add(s.PresignTTL)

	out := make([]types.AboutTitleResponse, 0, len(titles))
	for _, t := range titles {
		subtitles := make([]types.AboutSubtitleResponse, 0, len(t.Subtitles))
		for _, sub := range t.Subtitles {
			resp := sub.Response()
			if resp.Image != nil {
				url, err := sub.ImageURL(ctx, s.Uploader, s.PresignTTL)
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, "failed to presign image")
					return nil, err
				}
				resp.Image.URL = url
				resp.Image.ExpiresAt = expires
			}
			subtitles = append(subtitles, resp)
		}

		out = append(out, types.AboutTitleResponse{
			Subtitles: subtitles,
			Title:     t.Title,
			Type:      t.Type,
			ID:        t.ID,
		})
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	span.SetStatus(codes.Ok, "listed about blocks")
	return out, nil
}

func (s *Service) titleID(ctx context.Context, tx *gorm.DB, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.InvalidRequest.Wrap(err)
	}

	exists, err := models.Exists[models.AboutTitle](ctx, tx, "id = ?", id)
	if err != nil {
		return uuid.Nil, err
	}
	if !exists {
		return uuid.Nil, apperr.AboutTitleNotFound
	}

	return id, nil
}

func (s *Service) linkImage(tx *gorm.DB, subtitle *models.AboutSubtitle, key string, image *Image) error {
	subtitle.ImageKey = models.NewNullFromData(key)
	subtitle.ImageName = models.NewNullFromData(image.Name)
	subtitle.ImageSize = models.NewNullFromData(image.Size)

	return tx.Model(subtitle).Select("image_key", "image_name", "image_size").Updates(subtitle).Error
}
