package types

import (
	"time"

	"github.com/google/uuid"
)

type SearchType string

const (
	SearchTitle        SearchType = "T"
	SearchContent      SearchType = "C"
	SearchTitleContent SearchType = "TC"
	SearchWriter       SearchType = "W"
)

type ReactionKind string

const (
	ReactionLike    ReactionKind = "LIKE"
	ReactionDislike ReactionKind = "DISLIKE"
)

type (
	CategoryCreate struct {
		Name string `json:"name" validate:"required,max=50"`
	}

	CategoryResponse struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}

	// Multipart fields of a new or modified post, files travel as `file` parts
	PostWrite struct {
		CategoryID   string `form:"category_id"   validate:"required,uuid"`
		Title        string `form:"title"         validate:"required,max=200"`
		Content      string `form:"content"       validate:"required,max=100000"`
		Password     string `form:"password"      validate:"required_if=IsSecret true,max=64"`
		AllowComment bool   `form:"allow_comment"`
		IsNotice     bool   `form:"is_notice"`
		IsSecret     bool   `form:"is_secret"`
		IsTemp       bool   `form:"is_temp"`
	}

	PostListQuery struct {
		CategoryID string `query:"category" validate:"omitempty,uuid"`
		Page       int    `query:"page"     validate:"gte=0,lte=100000"`
		Size       int    `query:"size"     validate:"gte=0,lte=100"`
	}

	PostSearchQuery struct {
		Type       SearchType `query:"type"     validate:"required,oneof=T C TC W"`
		Keyword    string     `query:"keyword"  validate:"required,max=100"`
		CategoryID string     `query:"category" validate:"omitempty,uuid"`
		Page       int        `query:"page"     validate:"gte=0,lte=100000"`
		Size       int        `query:"size"     validate:"gte=0,lte=100"`
	}

	// List entry, never carries content
	PostSummary struct {
		RegisterTime time.Time `json:"register_time"`
		Title        string    `json:"title"`
		Writer       string    `json:"writer"`
		ID           uuid.UUID `json:"id"`
		CategoryID   uuid.UUID `json:"category_id"`
		VisitCount   int64     `json:"visit_count"`
		LikeCount    int64     `json:"like_count"`
		DislikeCount int64     `json:"dislike_count"`
		CommentCount int64     `json:"comment_count"`
		IsNotice     bool      `json:"is_notice"`
		IsSecret     bool      `json:"is_secret"`
	}

	PostResponse struct {
		RegisterTime time.Time          `json:"register_time"`
		UpdateTime   time.Time          `json:"update_time"`
		WriterID     *uuid.UUID         `json:"writer_id"`
		Files        []PostFileResponse `json:"files"`
		Title        string             `json:"title"`
		Content      string             `json:"content"`
		Writer       string             `json:"writer"`
		ID           uuid.UUID          `json:"id"`
		CategoryID   uuid.UUID          `json:"category_id"`
		VisitCount   int64              `json:"visit_count"`
		LikeCount    int64              `json:"like_count"`
		DislikeCount int64              `json:"dislike_count"`
		CommentCount int64              `json:"comment_count"`
		AllowComment bool               `json:"allow_comment"`
		IsNotice     bool               `json:"is_notice"`
		IsSecret     bool               `json:"is_secret"`
		IsTemp       bool               `json:"is_temp"`
	}

	PostFileResponse struct {
		UploadTime time.Time `json:"upload_time"`
		Name       string    `json:"name"`
		ID         uuid.UUID `json:"id"`
		Size       int64     `json:"size"`
	}

	CommentCreate struct {
		ParentID *uuid.UUID `json:"parent_id"`
		Content  string     `json:"content"   validate:"required,max=2000"`
	}

	CommentModify struct {
		Content string `json:"content" validate:"required,max=2000"`
	}

	CommentListQuery struct {
		Page int `query:"page" validate:"gte=0,lte=100000"`
		Size int `query:"size" validate:"gte=0,lte=100"`
	}

	// Deleted comments keep their place with writer and content blanked
	CommentResponse struct {
		RegisterTime time.Time  `json:"register_time"`
		ParentID     *uuid.UUID `json:"parent_id"`
		WriterID     *uuid.UUID `json:"writer_id"`
		Writer       string     `json:"writer"`
		Content      string     `json:"content"`
		ID           uuid.UUID  `json:"id"`
		PostID       uuid.UUID  `json:"post_id"`
		LikeCount    int64      `json:"like_count"`
		DislikeCount int64      `json:"dislike_count"`
		Deleted      bool       `json:"deleted"`
	}

	ReactionResponse struct {
		LikeCount    int64 `json:"like_count"`
		DislikeCount int64 `json:"dislike_count"`
		Active       bool  `json:"active"`
	}
)
