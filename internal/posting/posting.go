// Package posting implements the board: categories, posts with attachments,
// comments and like/dislike reactions.
package posting

import (
	"context"
	"errors"
	"io"
	"path"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/archive"
	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
	"github.com/keeper-project/homepage-api/internal/upload"
	"github.com/keeper-project/homepage-api/internal/validator"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/internal/posting")

const (
	defaultPageSize = 10
	// Attachments a single post may carry
	MaxFiles = 10
)

type Service struct {
	DB       *gorm.DB
	Uploader upload.Uploader
	// Lifetime of presigned attachment urls
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

// File sent along with a post
type Attachment struct {
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

func postByID(tx *gorm.DB, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := tx.Preload("Writer").Preload("Files", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at, id")
	}).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, apperr.PostNotFound)
	}

	return &post, nil
}

// Row lock taken by everything that moves a post's counters
func lockPost(tx *gorm.DB, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, apperr.PostNotFound)
	}

	return &post, nil
}

// Deleted comments are not found
func lockComment(tx *gorm.DB, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&comment, "id = ? AND NOT deleted", id).Error
	if err != nil {
		return nil, notFound(err, apperr.CommentNotFound)
	}

	return &comment, nil
}

func memberAudit(actorID uuid.UUID) audit.Context {
	return audit.Context{MemberID: audit.ID(actorID)}
}

func canManage(actor *models.Member, writtenBy bool) bool {
	return writtenBy || actor.Roles.President
}

// Drafts belong to their writer. Secret posts also open to presidents and to
// whoever presents the post password.
func readable(actor *models.Member, post *models.Post, password string) error {
	if post.WrittenBy(actor.ID) {
		return nil
	}

	if post.IsTemp {
		return apperr.PostNotFound
	}

	if !post.IsSecret || actor.Roles.President {
		return nil
	}

	if password == "" || !post.Password.Valid {
		return apperr.SecretPost
	}

	match, err := argon2id.ComparePasswordAndHash(password, post.Password.V)
	if err != nil {
		return err
	}
	if !match {
		return apperr.SecretPost
	}

	return nil
}

func validateAttachments(files []Attachment) error {
	if len(files) > MaxFiles {
		return apperr.TooManyFiles
	}

	for _, f := range files {
		if !validator.ValidateAttachmentSize(f.Size) {
			if f.Size > 0 {
				return apperr.FileTooLarge
			}
			return apperr.InvalidRequest.WithOverride("empty file")
		}
	}

	return nil
}

// Uploads files under the post's prefix and links them. Keys are appended to
// `stored` as they land so the caller can clean up after a rollback.
func (s *Service) storeFiles(
	ctx context.Context,
	tx *gorm.DB,
	c audit.Context,
	postID uuid.UUID,
	ip string,
	files []Attachment,
	stored *[]string,
) ([]models.PostFile, error) {
	ctx, span := tracer.Start(ctx, "storeFiles", trace.WithAttributes(
		attribute.String("post.id", postID.String()),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	rows := make([]models.PostFile, 0, len(files))
	for _, f := range files {
		key, err := archive.StoreFile(ctx, c, s.Uploader, &archive.FileMetadata{
			Reader:   f.Reader,
			Prefix:   path.Join("posts", postID.String()),
			Entity:   audit.EntityPostFile,
			EntityID: postID.String(),
			Size:     f.Size,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to store file")
			return nil, err
		}
		*stored = append(*stored, key)

		row := models.PostFile{
			FileKey:   key,
			FileName:  f.Name,
			IPAddress: ip,
			PostID:    postID,
			FileSize:  f.Size,
		}
		err = tx.Create(&row).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to link file")
			return nil, err
		}

		rows = append(rows, row)
	}

	span.SetStatus(codes.Ok, "stored files")
	return rows, nil
}

// Deletes objects except those in `keep`. Best effort, a dangling object only
// costs storage.
func (s *Service) discard(
	ctx context.Context,
	c audit.Context,
	postID uuid.UUID,
	keys []string,
	keep map[string]bool,
) {
	done := map[string]bool{}
	for _, key := range keys {
		if keep[key] || done[key] {
			continue
		}
		done[key] = true

		err := archive.DeleteFile(ctx, c, s.Uploader, key, audit.EntityPostFile, postID.String())
		if err != nil {
			logger.Logger.WarnContext(ctx, "failed to delete post attachment",
				"post_id", postID, "object", key, "error", err)
		}
	}
}

func fileKeys(files []models.PostFile) []string {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.FileKey)
	}

	return keys
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}

	return set
}

func (s *Service) CreateCategory(
	ctx context.Context,
	actorID uuid.UUID,
	req types.CategoryCreate,
) (*models.Category, error) {
	ctx, span := tracer.Start(ctx, "CreateCategory", trace.WithAttributes(
		attribute.String("member.id", actorID.String()),
		attribute.String("category.name", req.Name),
	))
	defer span.End()

	category := models.Category{Name: req.Name}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&category).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create category")
		return nil, err
	}

	span.SetAttributes(attribute.String("category.id", category.ID.String()))
	span.SetStatus(codes.Ok, "created category")
	return &category, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, span := tracer.Start(ctx, "ListCategories")
	defer span.End()

	var categories []models.Category
	err := s.DB.WithContext(ctx).Order("name").Find(&categories).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list categories")
		return nil, err
	}

	span.SetStatus(codes.Ok, "listed categories")
	return categories, nil
}
