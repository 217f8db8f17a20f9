package types

import (
	"time"

	"github.com/google/uuid"
)

type (
	BookAdd struct {
		Title       string `json:"title"       validate:"required,max=250"`
		Author      string `json:"author"      validate:"required,max=40"`
		Information string `json:"information" validate:"max=2000"`
		Quantity    int64  `json:"quantity"    validate:"required,gte=1"`
	}

	BookDelete struct {
		Title    string `json:"title"    validate:"required"`
		Author   string `json:"author"   validate:"required"`
		Quantity int64  `json:"quantity" validate:"required,gte=1"`
	}

	BookBorrow struct {
		BookID   uuid.UUID `json:"book_id"   validate:"required"`
		MemberID uuid.UUID `json:"member_id" validate:"required"`
		Quantity int64     `json:"quantity"  validate:"required,gte=1"`
	}

	BookReturn struct {
		BorrowID uuid.UUID `json:"borrow_id" validate:"required"`
		Quantity int64     `json:"quantity"  validate:"required,gte=1"`
	}

	BookQuery struct {
		Keyword string `query:"keyword" validate:"max=100"`
		Page    int    `query:"page"    validate:"gte=0,lte=100000"`
		Size    int    `query:"size"    validate:"gte=0,lte=100"`
	}

	BookResponse struct {
		RegisterDate time.Time `json:"register_date"`
		Title        string    `json:"title"`
		Author       string    `json:"author"`
		Information  string    `json:"information"`
		ID           uuid.UUID `json:"id"`
		Total        int64     `json:"total"`
		Borrow       int64     `json:"borrow"`
		Enable       int64     `json:"enable"`
	}

	BorrowResponse struct {
		BorrowDate time.Time `json:"borrow_date"`
		ExpireDate time.Time `json:"expire_date"`
		Title      string    `json:"title"`
		ID         uuid.UUID `json:"id"`
		BookID     uuid.UUID `json:"book_id"`
		MemberID   uuid.UUID `json:"member_id"`
		Quantity   int64     `json:"quantity"`
		Returned   bool      `json:"returned"`
	}
)
