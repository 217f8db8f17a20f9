package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/keeper-project/homepage-api/internal/types"
)

type Category struct {
	Name string
	Model
}

func (Category) TableName() string {
	return "categories"
}

func (c Category) GetID() uuid.UUID {
	return c.ID
}

func (c Category) Response() types.CategoryResponse {
	return types.CategoryResponse{ID: c.ID, Name: c.Name}
}

// Counters always match the reaction and live comment rows
type Post struct {
	Password  datatypes.Null[string] `json:"-"` // argon2id hash, set for secret posts
	Writer    *Member                `gorm:"foreignKey:WriterID"`
	WriterID  *uuid.UUID
	Files     []PostFile `gorm:"foreignKey:PostID"`
	Title     string
	Content   string
	IPAddress string
	Model
	CategoryID   uuid.UUID
	VisitCount   int64
	LikeCount    int64
	DislikeCount int64
	CommentCount int64
	AllowComment bool
	IsNotice     bool
	IsSecret     bool
	IsTemp       bool
}

func (Post) TableName() string {
	return "posts"
}

func (p Post) GetID() uuid.UUID {
	return p.ID
}

// Members that left leave their posts behind without a writer
func writerName(m *Member) string {
	if m == nil {
		return ""
	}

	return m.NickName
}

func (p Post) WrittenBy(id uuid.UUID) bool {
	return p.WriterID != nil && *p.WriterID == id
}

func (p Post) Summary() types.PostSummary {
	return types.PostSummary{
		RegisterTime: p.CreatedAt,
		Title:        p.Title,
		Writer:       writerName(p.Writer),
		ID:           p.ID,
		CategoryID:   p.CategoryID,
		VisitCount:   p.VisitCount,
		LikeCount:    p.LikeCount,
		DislikeCount: p.DislikeCount,
		CommentCount: p.CommentCount,
		IsNotice:     p.IsNotice,
		IsSecret:     p.IsSecret,
	}
}

func (p Post) Response() types.PostResponse {
	files := make([]types.PostFileResponse, 0, len(p.Files))
	for _, f := range p.Files {
		files = append(files, f.Response())
	}

	return types.PostResponse{
		RegisterTime: p.CreatedAt,
		UpdateTime:   p.UpdatedAt,
		WriterID:     p.WriterID,
		Files:        files,
		Title:        p.Title,
		Content:      p.Content,
		Writer:       writerName(p.Writer),
		ID:           p.ID,
		CategoryID:   p.CategoryID,
		VisitCount:   p.VisitCount,
		LikeCount:    p.LikeCount,
		DislikeCount: p.DislikeCount,
		CommentCount: p.CommentCount,
		AllowComment: p.AllowComment,
		IsNotice:     p.IsNotice,
		IsSecret:     p.IsSecret,
		IsTemp:       p.IsTemp,
	}
}

type PostFile struct {
	FileKey   string
	FileName  string
	IPAddress string
	Model
	PostID   uuid.UUID
	FileSize int64
}

func (PostFile) TableName() string {
	return "post_files"
}

func (f PostFile) GetID() uuid.UUID {
	return f.ID
}

func (f PostFile) Response() types.PostFileResponse {
	return types.PostFileResponse{
		UploadTime: f.CreatedAt,
		Name:       f.FileName,
		ID:         f.ID,
		Size:       f.FileSize,
	}
}

type Comment struct {
	Writer    *Member `gorm:"foreignKey:WriterID"`
	WriterID  *uuid.UUID
	ParentID  *uuid.UUID
	Content   string
	IPAddress string
	Model
	PostID       uuid.UUID
	LikeCount    int64
	DislikeCount int64
	Deleted      bool
}

func (Comment) TableName() string {
	return "comments"
}

func (c Comment) GetID() uuid.UUID {
	return c.ID
}

func (c Comment) WrittenBy(id uuid.UUID) bool {
	return c.WriterID != nil && *c.WriterID == id
}

func (c Comment) Response() types.CommentResponse {
	return types.CommentResponse{
		RegisterTime: c.CreatedAt,
		ParentID:     c.ParentID,
		WriterID:     c.WriterID,
		Writer:       writerName(c.Writer),
		Content:      c.Content,
		ID:           c.ID,
		PostID:       c.PostID,
		LikeCount:    c.LikeCount,
		DislikeCount: c.DislikeCount,
		Deleted:      c.Deleted,
	}
}

// One row per (post, member, kind)
type PostReaction struct {
	Kind types.ReactionKind `gorm:"type:text"`
	Model
	PostID   uuid.UUID
	MemberID uuid.UUID
}

func (PostReaction) TableName() string {
	return "post_reactions"
}

func (r PostReaction) GetID() uuid.UUID {
	return r.ID
}

// One row per (comment, member, kind)
type CommentReaction struct {
	Kind types.ReactionKind `gorm:"type:text"`
	Model
	CommentID uuid.UUID
	MemberID  uuid.UUID
}

func (CommentReaction) TableName() string {
	return "comment_reactions"
}

func (r CommentReaction) GetID() uuid.UUID {
	return r.ID
}

// Counter column a reaction kind moves
func ReactionCounter(kind types.ReactionKind) string {
	if kind == types.ReactionDislike {
		return "dislike_count"
	}

	return "like_count"
}
