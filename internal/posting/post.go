package posting

import (
	"context"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
)

// Checks the request against the actor and resolves its category and password hash
func (s *Service) prepareWrite(
	ctx context.Context,
	tx *gorm.DB,
	actor *models.Member,
	req types.PostWrite,
) (uuid.UUID, datatypes.Null[string], error) {
	var password datatypes.Null[string]

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return uuid.Nil, password, apperr.InvalidRequest.Wrap(err)
	}

	if req.IsNotice && !actor.Roles.President {
		return uuid.Nil, password, apperr.AccessDenied.WithOverride("only presidents may post notices")
	}

	exists, err := models.Exists[models.Category](ctx, tx, "id = ?", categoryID)
	if err != nil {
		return uuid.Nil, password, err
	}
	if !exists {
		return uuid.Nil, password, apperr.CategoryNotFound
	}

	if req.IsSecret {
		hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
		if err != nil {
			return uuid.Nil, password, err
		}
		password = models.NewNullFromData(hash)
	}

	return categoryID, password, nil
}

// Creates a post and its attachments together. Objects stored before a
// failure are deleted again.
func (s *Service) CreatePost(
	ctx context.Context,
	actor *models.Member,
	req types.PostWrite,
	ip string,
	files []Attachment,
) (*models.Post, error) {
	ctx, span := tracer.Start(ctx, "CreatePost", trace.WithAttributes(
		attribute.String("member.id", actor.ID.String()),
		attribute.String("category.id", req.CategoryID),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	err := validateAttachments(files)
	if err != nil {
		span.SetStatus(codes.Error, "invalid attachments")
		return nil, err
	}

	c := memberAudit(actor.ID)

	var post models.Post
	var stored []string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryID, password, err := s.prepareWrite(ctx, tx, actor, req)
		if err != nil {
			return err
		}

		post = models.Post{
			Password:     password,
			WriterID:     &actor.ID,
			Title:        req.Title,
			Content:      req.Content,
			IPAddress:    ip,
			CategoryID:   categoryID,
			AllowComment: req.AllowComment,
			IsNotice:     req.IsNotice,
			IsSecret:     req.IsSecret,
			IsTemp:       req.IsTemp,
		}
		err = tx.Omit("Writer", "Files").Create(&post).Error
		if err != nil {
			return err
		}

		post.Files, err = s.storeFiles(ctx, tx, c, post.ID, ip, files, &stored)
		return err
	})
	if err != nil {
		s.discard(ctx, c, post.ID, stored, nil)

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create post")
		return nil, err
	}
	post.Writer = actor

	audit.LogPostCreated(c, post.ID.String(), post.CategoryID.String(), post.Title, len(post.Files))

	span.SetAttributes(attribute.String("post.id", post.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created post")
	return &post, nil
}

// Shows a post and counts the visit
func (s *Service) GetPost(
	ctx context.Context,
	actor *models.Member,
	id uuid.UUID,
	password string,
) (*models.Post, error) {
	ctx, span := tracer.Start(ctx, "GetPost", trace.WithAttributes(
		attribute.String("post.id", id.String()),
		attribute.String("member.id", actor.ID.String()),
	))
	defer span.End()

	var post *models.Post
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		post, err = postByID(tx, id)
		if err != nil {
			return err
		}

		err = readable(actor, post, password)
		if err != nil {
			return err
		}

		err = tx.Model(post).UpdateColumn("visit_count", gorm.Expr("visit_count + 1")).Error
		if err != nil {
			return err
		}
		post.VisitCount++

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get post")
		return nil, err
	}

	span.SetStatus(codes.Ok, "got post")
	return post, nil
}

// Rewrites a post. Sent files replace every previous attachment, no files
// keeps them.
func (s *Service) ModifyPost(
	ctx context.Context,
	actor *models.Member,
	id uuid.UUID,
	req types.PostWrite,
	ip string,
	files []Attachment,
) (*models.Post, error) {
	ctx, span := tracer.Start(ctx, "ModifyPost", trace.WithAttributes(
		attribute.String("post.id", id.String()),
		attribute.String("member.id", actor.ID.String()),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	err := validateAttachments(files)
	if err != nil {
		span.SetStatus(codes.Error, "invalid attachments")
		return nil, err
	}

	c := memberAudit(actor.ID)

	var post *models.Post
	var replaced, stored []string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		post, err = lockPost(tx, id)
		if err != nil {
			return err
		}

		if !post.WrittenBy(actor.ID) {
			return apperr.AccessDenied
		}

		categoryID, password, err := s.prepareWrite(ctx, tx, actor, req)
		if err != nil {
			return err
		}

		post.Password = password
		post.Title = req.Title
		post.Content = req.Content
		post.IPAddress = ip
		post.CategoryID = categoryID
		post.AllowComment = req.AllowComment
		post.IsNotice = req.IsNotice
		post.IsSecret = req.IsSecret
		post.IsTemp = req.IsTemp

		err = tx.Model(post).Select(
			"password", "title", "content", "ip_address", "category_id",
			"allow_comment", "is_notice", "is_secret", "is_temp",
		).Updates(post).Error
		if err != nil {
			return err
		}

		var current []models.PostFile
		err = tx.Where("post_id = ?", id).Order("created_at, id").Find(&current).Error
		if err != nil {
			return err
		}

		if len(files) == 0 {
			post.Files = current
			return nil
		}

		replaced = fileKeys(current)
		err = tx.Where("post_id = ?", id).Delete(&models.PostFile{}).Error
		if err != nil {
			return err
		}

		post.Files, err = s.storeFiles(ctx, tx, c, id, ip, files, &stored)
		return err
	})
	if err != nil {
		// same content hashes to the same key, keep what the old rows still use
		s.discard(ctx, c, id, stored, keySet(replaced))

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to modify post")
		return nil, err
	}
	post.Writer = actor

	s.discard(ctx, c, id, replaced, keySet(stored))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "modified post")
	return post, nil
}

// Writer or president. Comments and reactions go with the row, objects after commit.
func (s *Service) DeletePost(ctx context.Context, actor *models.Member, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "DeletePost", trace.WithAttributes(
		attribute.String("post.id", id.String()),
		attribute.String("member.id", actor.ID.String()),
	))
	defer span.End()

	var post *models.Post
	var keys []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		post, err = lockPost(tx, id)
		if err != nil {
			return err
		}

		if !canManage(actor, post.WrittenBy(actor.ID)) {
			return apperr.AccessDenied
		}

		err = tx.Model(&models.PostFile{}).Where("post_id = ?", id).Pluck("file_key", &keys).Error
		if err != nil {
			return err
		}

		return tx.Delete(post).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete post")
		return err
	}

	c := memberAudit(actor.ID)
	audit.LogPostDeleted(c, id.String(), post.CategoryID.String(), post.Title, len(keys))

	s.discard(ctx, c, id, keys, nil)

	span.SetStatus(codes.Ok, "deleted post")
	return nil
}

// Newest first, notices on top. Drafts never list.
func (s *Service) ListPosts(ctx context.Context, query types.PostListQuery) (*types.Page[types.PostSummary], error) {
	ctx, span := tracer.Start(ctx, "ListPosts", trace.WithAttributes(
		attribute.String("category.id", query.CategoryID),
	))
	defer span.End()

	page, err := s.listPage(ctx, func() *gorm.DB {
		db := s.DB.WithContext(ctx).Model(&models.Post{}).Where("NOT is_temp")
		if query.CategoryID != "" {
			db = db.Where("category_id = ?", query.CategoryID)
		}
		return db
	}, "is_notice DESC, created_at DESC, id DESC", query.Page, query.Size)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list posts")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("total", page.Total))
	span.SetStatus(codes.Ok, "listed posts")
	return page, nil
}

// Case insensitive substring search. Secret post contents are never matched.
func (s *Service) SearchPosts(ctx context.Context, query types.PostSearchQuery) (*types.Page[types.PostSummary], error) {
	ctx, span := tracer.Start(ctx, "SearchPosts", trace.WithAttributes(
		attribute.String("search.type", string(query.Type)),
		attribute.String("keyword", query.Keyword),
	))
	defer span.End()

	pattern := models.ContainsPattern(query.Keyword)

	page, err := s.listPage(ctx, func() *gorm.DB {
		db := s.DB.WithContext(ctx).Model(&models.Post{}).Where("NOT is_temp")
		if query.CategoryID != "" {
			db = db.Where("category_id = ?", query.CategoryID)
		}

		switch query.Type {
		case types.SearchTitle:
			db = db.Where("title ILIKE ?", pattern)
		case types.SearchContent:
			db = db.Where("NOT is_secret AND content ILIKE ?", pattern)
		case types.SearchTitleContent:
			db = db.Where("title ILIKE ? OR (NOT is_secret AND content ILIKE ?)", pattern, pattern)
		case types.SearchWriter:
			writers := s.DB.Model(&models.Member{}).Select("id").Where("nick_name ILIKE ?", pattern)
			db = db.Where("writer_id IN (?)", writers)
		}
		return db
	}, "created_at DESC, id DESC", query.Page, query.Size)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to search posts")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("total", page.Total))
	span.SetStatus(codes.Ok, "searched posts")
	return page, nil
}

func (s *Service) listPage(
	ctx context.Context,
	matching func() *gorm.DB,
	order string,
	page, size int,
) (*types.Page[types.PostSummary], error) {
	var total int64
	err := matching().Count(&total).Error
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	err = matching().Preload("Writer").
		Order(order).
		Scopes(models.Paginate(page, size, defaultPageSize)).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	_, size = models.PageBounds(page, size, defaultPageSize)

	content := make([]types.PostSummary, 0, len(posts))
	for _, p := range posts {
		content = append(content, p.Summary())
	}

	return &types.Page[types.PostSummary]{
		Content: content,
		Page:    page,
		Size:    size,
		Total:   total,
	}, nil
}

// Attachments of a post the actor may read
func (s *Service) Attachments(
	ctx context.Context,
	actor *models.Member,
	id uuid.UUID,
	password string,
) ([]models.PostFile, error) {
	ctx, span := tracer.Start(ctx, "Attachments", trace.WithAttributes(
		attribute.String("post.id", id.String()),
	))
	defer span.End()

	post, err := postByID(s.DB.WithContext(ctx), id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get post")
		return nil, err
	}

	err = readable(actor, post, password)
	if err != nil {
		span.SetStatus(codes.Error, "post not readable")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(post.Files)))
	span.SetStatus(codes.Ok, "listed attachments")
	return post.Files, nil
}

// Presigned download url of one attachment, named after the uploaded file
func (s *Service) AttachmentURL(
	ctx context.Context,
	actor *models.Member,
	fileID uuid.UUID,
	password string,
) (*types.FileURLResponse, error) {
	ctx, span := tracer.Start(ctx, "AttachmentURL", trace.WithAttributes(
		attribute.String("file.id", fileID.String()),
	))
	defer span.End()

	db := s.DB.WithContext(ctx)

	var file models.PostFile
	err := db.First(&file, "id = ?", fileID).Error
	if err != nil {
		err = notFound(err, apperr.AttachmentNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get attachment")
		return nil, err
	}

	post, err := postByID(db, file.PostID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get post")
		return nil, err
	}

	err = readable(actor, post, password)
	if err != nil {
		span.SetStatus(codes.Error, "post not readable")
		return nil, err
	}

	expires := s.now().Add(s.PresignTTL)
	url, err := s.Uploader.PresignedReadURL(ctx, file.FileKey, file.FileName, s.PresignTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to presign url")
		return nil, err
	}

	span.SetStatus(codes.Ok, "generated attachment url")
	return &types.FileURLResponse{
		ExpiresAt: expires,
		Name:      file.FileName,
		URL:       url,
	}, nil
}
