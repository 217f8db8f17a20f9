package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/keeper-project/homepage-api/internal/types"
	"github.com/keeper-project/homepage-api/internal/upload"
)

var ErrNoFile = errors.New("problem has no file attached")

type Problem struct {
	MinScore datatypes.Null[int64]
	Decay    datatypes.Null[int64]
	FileKey  datatypes.Null[string]
	FileName datatypes.Null[string]
	FileSize datatypes.Null[int64]
	Title    string
	Content  string
	Flag     string                `json:"-"`
	Category types.ProblemCategory `gorm:"type:text"`
	Type     types.ProblemType     `gorm:"type:text"`
	Model
	ContestID  uuid.UUID
	CreatorID  uuid.UUID
	Score      int64
	IsSolvable bool
}

func (Problem) TableName() string {
	return "problems"
}

func (p Problem) GetID() uuid.UUID {
	return p.ID
}

func (p Problem) File() *types.FileResponse {
	if !p.FileKey.Valid {
		return nil
	}

	return &types.FileResponse{Name: p.FileName.V, Size: p.FileSize.V}
}

// Privileged view with the flag
func (p Problem) AdminResponse(solvedCount int64) types.ProblemAdminResponse {
	return types.ProblemAdminResponse{
		File:        p.File(),
		MinScore:    PtrFromNull(p.MinScore),
		Decay:       PtrFromNull(p.Decay),
		Title:       p.Title,
		Content:     p.Content,
		Flag:        p.Flag,
		Category:    p.Category,
		Type:        p.Type,
		ID:          p.ID,
		ContestID:   p.ContestID,
		CreatorID:   p.CreatorID,
		Score:       p.Score,
		SolvedCount: solvedCount,
		IsSolvable:  p.IsSolvable,
	}
}

// Gets a presigned url for the attached file
func (p *Problem) FileURL(
	ctx context.Context,
	u upload.Uploader,
	duration time.Duration,
) (string, error) {
	ctx, span := tracer.Start(ctx, "Problem.FileURL", trace.WithAttributes(
		attribute.String("problem.id", p.ID.String()),
	))
	defer span.End()

	if !p.FileKey.Valid {
		span.RecordError(ErrNoFile)
		span.SetStatus(codes.Error, "no file attached")
		return "", ErrNoFile
	}

	url, err := u.PresignedReadURL(ctx, p.FileKey.V, p.FileName.V, duration)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make file url")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "generated file url")
	return url, nil
}
