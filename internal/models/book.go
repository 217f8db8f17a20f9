package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/keeper-project/homepage-api/internal/types"
)

// total = enable + borrow, enforced by a check constraint
type Book struct {
	Title       string
	Author      string
	Information string
	Model
	Total  int64
	Borrow int64
	Enable int64
}

func (Book) TableName() string {
	return "books"
}

func (b Book) GetID() uuid.UUID {
	return b.ID
}

func (b Book) Response() types.BookResponse {
	return types.BookResponse{
		RegisterDate: b.CreatedAt,
		Title:        b.Title,
		Author:       b.Author,
		Information:  b.Information,
		ID:           b.ID,
		Total:        b.Total,
		Borrow:       b.Borrow,
		Enable:       b.Enable,
	}
}

type BookBorrow struct {
	ExpireDate time.Time
	Book       *Book `gorm:"foreignKey:BookID"`
	Model
	BookID   uuid.UUID
	MemberID uuid.UUID
	Quantity int64
}

func (BookBorrow) TableName() string {
	return "book_borrows"
}

func (b BookBorrow) GetID() uuid.UUID {
	return b.ID
}

func (b BookBorrow) Response() types.BorrowResponse {
	resp := types.BorrowResponse{
		BorrowDate: b.CreatedAt,
		ExpireDate: b.ExpireDate,
		ID:         b.ID,
		BookID:     b.BookID,
		MemberID:   b.MemberID,
		Quantity:   b.Quantity,
	}
	if b.Book != nil {
		resp.Title = b.Book.Title
	}

	return resp
}

func (b BookBorrow) Overdue(now time.Time) bool {
	return b.ExpireDate.Before(now)
}
