// Package library tracks book inventory and loans.
// Every operation keeps total = enable + borrow on the book row.
package library

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/internal/library")

const defaultPageSize = 10

type Service struct {
	DB     *gorm.DB
	Config config.LibraryConfig
	now    func() time.Time
}

func New(db *gorm.DB, cfg config.LibraryConfig) *Service {
	return &Service{DB: db, Config: cfg, now: time.Now}
}

func lockBook(tx *gorm.DB, query string, args ...any) (*models.Book, error) {
	var book models.Book
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(query, args...).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.BookNotFound.Wrap(err)
		}
		return nil, err
	}

	return &book, nil
}

func bookAudit(actorID uuid.UUID) audit.Context {
	return audit.Context{MemberID: audit.ID(actorID)}
}

// Adds copies of a title, creating the book on first add. A title may not
// hold more than the configured number of copies.
func (s *Service) AddBook(ctx context.Context, actorID uuid.UUID, req types.BookAdd) (*models.Book, error) {
	ctx, span := tracer.Start(ctx, "AddBook", trace.WithAttributes(
		attribute.String("book.title", req.Title),
		attribute.String("book.author", req.Author),
		attribute.Int64("quantity", req.Quantity),
	))
	defer span.End()

	var book *models.Book
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		book, err = lockBook(tx, "title = ? AND author = ?", req.Title, req.Author)
		if err != nil && !errors.Is(err, apperr.BookNotFound) {
			return err
		}

		if book == nil {
			if req.Quantity > s.Config.MaxCopies {
				return apperr.BookOverTheMax
			}

			book = &models.Book{
				Title:       req.Title,
				Author:      req.Author,
				Information: req.Information,
				Total:       req.Quantity,
				Enable:      req.Quantity,
			}
			return tx.Create(book).Error
		}

		if book.Total+req.Quantity > s.Config.MaxCopies {
			return apperr.BookOverTheMax
		}

		book.Total += req.Quantity
		book.Enable += req.Quantity
		if req.Information != "" {
			book.Information = req.Information
		}

		return tx.Model(book).Select("total", "enable", "information").Updates(book).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add book")
		return nil, err
	}

	audit.LogBookInventoryChanged(bookAudit(actorID), book.ID.String(), req.Quantity, book.Total)

	span.SetAttributes(attribute.String("book.id", book.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "added book")
	return book, nil
}

// Removes copies that are on the shelf. Returns nil when the last copy went
// and the book was deleted.
func (s *Service) DeleteBook(ctx context.Context, actorID uuid.UUID, req types.BookDelete) (*models.Book, error) {
	ctx, span := tracer.Start(ctx, "DeleteBook", trace.WithAttributes(
		attribute.String("book.title", req.Title),
		attribute.String("book.author", req.Author),
		attribute.Int64("quantity", req.Quantity),
	))
	defer span.End()

	var book *models.Book
	var removed bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		book, err = lockBook(tx, "title = ? AND author = ?", req.Title, req.Author)
		if err != nil {
			return err
		}

		if req.Quantity > book.Enable {
			return apperr.BookNotEnough
		}

		book.Total -= req.Quantity
		book.Enable -= req.Quantity

		if book.Total == 0 {
			removed = true
			return tx.Delete(book).Error
		}

		return tx.Model(book).Select("total", "enable").Updates(book).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete book")
		return nil, err
	}

	audit.LogBookInventoryChanged(bookAudit(actorID), book.ID.String(), -req.Quantity, book.Total)

	span.SetAttributes(attribute.Bool("book.removed", removed))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted book copies")
	if removed {
		return nil, nil
	}

	return book, nil
}

// Lends `quantity` shelf copies to a member for the configured loan period
func (s *Service) BorrowBook(
	ctx context.Context,
	actorID uuid.UUID,
	req types.BookBorrow,
) (*models.BookBorrow, error) {
	ctx, span := tracer.Start(ctx, "BorrowBook", trace.WithAttributes(
		attribute.String("book.id", req.BookID.String()),
		attribute.String("member.id", req.MemberID.String()),
		attribute.Int64("quantity", req.Quantity),
	))
	defer span.End()

	var borrow models.BookBorrow
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := lockBook(tx, "id = ?", req.BookID)
		if err != nil {
			return err
		}

		exists, err := models.Exists[models.Member](ctx, tx, "id = ?", req.MemberID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.MemberNotFound
		}

		if req.Quantity > book.Enable {
			return apperr.BookNotEnough
		}

		book.Enable -= req.Quantity
		book.Borrow += req.Quantity
		err = tx.Model(book).Select("enable", "borrow").Updates(book).Error
		if err != nil {
			return err
		}

		borrow = models.BookBorrow{
			ExpireDate: s.now().AddDate(0, 0, s.Config.LoanDays),
			BookID:     book.ID,
			MemberID:   req.MemberID,
			Quantity:   req.Quantity,
		}
		err = tx.Omit("Book").Create(&borrow).Error
		if err != nil {
			return err
		}

		borrow.Book = book
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to borrow book")
		return nil, err
	}

	audit.LogBookBorrowed(
		audit.Context{MemberID: audit.ID(req.MemberID)},
		borrow.ID.String(),
		borrow.BookID.String(),
		borrow.Quantity,
	)

	span.SetAttributes(attribute.String("borrow.id", borrow.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "borrowed book")
	return &borrow, nil
}

// Returns copies of a loan. A partial return shrinks the loan, a full return ends it.
func (s *Service) ReturnBook(
	ctx context.Context,
	actorID uuid.UUID,
	req types.BookReturn,
) (*types.BorrowResponse, error) {
	ctx, span := tracer.Start(ctx, "ReturnBook", trace.WithAttributes(
		attribute.String("borrow.id", req.BorrowID.String()),
		attribute.Int64("quantity", req.Quantity),
	))
	defer span.End()

	var borrow models.BookBorrow
	var returned bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&borrow, "id = ?", req.BorrowID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.BorrowNotFound.Wrap(err)
			}
			return err
		}

		if req.Quantity > borrow.Quantity {
			return apperr.InvalidRequest.WithOverride("cannot return more copies than borrowed")
		}

		book, err := lockBook(tx, "id = ?", borrow.BookID)
		if err != nil {
			return err
		}

		book.Enable += req.Quantity
		book.Borrow -= req.Quantity
		err = tx.Model(book).Select("enable", "borrow").Updates(book).Error
		if err != nil {
			return err
		}
		borrow.Book = book

		borrow.Quantity -= req.Quantity
		if borrow.Quantity == 0 {
			returned = true
			return tx.Delete(&borrow).Error
		}

		return tx.Model(&borrow).Update("quantity", borrow.Quantity).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to return book")
		return nil, err
	}

	audit.LogBookReturned(
		audit.Context{MemberID: audit.ID(borrow.MemberID)},
		borrow.ID.String(),
		borrow.BookID.String(),
		req.Quantity,
		borrow.Overdue(s.now()),
	)

	resp := borrow.Response()
	resp.Returned = returned

	span.SetAttributes(attribute.Bool("returned", returned))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "returned book")
	return &resp, nil
}

// Loans past their expiry, oldest expiry first
func (s *Service) OverdueBooks(ctx context.Context, page, size int) ([]models.BookBorrow, error) {
	ctx, span := tracer.Start(ctx, "OverdueBooks", trace.WithAttributes(
		attribute.Int("page", page),
		attribute.Int("size", size),
	))
	defer span.End()

	var borrows []models.BookBorrow
	err := s.DB.WithContext(ctx).
		Preload("Book").
		Where("expire_date < ?", s.now()).
		Order("expire_date, id").
		Scopes(models.Paginate(page, size, defaultPageSize)).
		Find(&borrows).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list overdue loans")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(borrows)))
	span.SetStatus(codes.Ok, "listed overdue loans")
	return borrows, nil
}

// Books whose title or author contains `keyword`, case insensitive
func (s *Service) SearchBooks(ctx context.Context, query types.BookQuery) (*types.Page[types.BookResponse], error) {
	ctx, span := tracer.Start(ctx, "SearchBooks", trace.WithAttributes(
		attribute.String("keyword", query.Keyword),
	))
	defer span.End()

	matching := func() *gorm.DB {
		db := s.DB.WithContext(ctx).Model(&models.Book{})
		if query.Keyword != "" {
			pattern := models.ContainsPattern(query.Keyword)
			db = db.Where("title ILIKE ? OR author ILIKE ?", pattern, pattern)
		}
		return db
	}

	var total int64
	err := matching().Count(&total).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count books")
		return nil, err
	}

	var books []models.Book
	err = matching().Order("title, author").
		Scopes(models.Paginate(query.Page, query.Size, defaultPageSize)).
		Find(&books).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to search books")
		return nil, err
	}

	size := query.Size
	if size <= 0 {
		size = defaultPageSize
	}

	content := make([]types.BookResponse, 0, len(books))
	for _, b := range books {
		content = append(content, b.Response())
	}

	span.SetAttributes(attribute.Int64("total", total))
	span.SetStatus(codes.Ok, "searched books")
	return &types.Page[types.BookResponse]{
		Content: content,
		Page:    query.Page,
		Size:    size,
		Total:   total,
	}, nil
}
