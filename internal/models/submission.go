package models

import (
	"github.com/google/uuid"

	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/types"
)

// Append-only record of every flag attempt
type SubmitLog struct {
	TeamID   *uuid.UUID
	Problem  *Problem `gorm:"foreignKey:ProblemID"`
	TeamName string
	Flag     string
	Model
	ContestID   uuid.UUID
	SubmitterID uuid.UUID
	ProblemID   uuid.UUID
	IsCorrect   bool
}

func (SubmitLog) TableName() string {
	return "submit_logs"
}

func (s SubmitLog) GetID() uuid.UUID {
	return s.ID
}

func (s SubmitLog) Response() types.SubmitLogResponse {
	resp := types.SubmitLogResponse{
		SubmitTime:  s.CreatedAt,
		TeamName:    s.TeamName,
		Flag:        s.Flag,
		ID:          s.ID,
		SubmitterID: s.SubmitterID,
		ProblemID:   s.ProblemID,
		IsCorrect:   s.IsCorrect,
	}
	if s.TeamID != nil {
		resp.TeamID = *s.TeamID
	}
	if s.Problem != nil {
		resp.ProblemTitle = s.Problem.Title
	}

	return resp
}

func (s SubmitLog) AuditLogSubmission(c audit.Context, scored bool, teamScore int64) {
	audit.LogFlagSubmission(c, s.ID.String(), s.ProblemID.String(), s.IsCorrect, scored, teamScore)
}

// Scored first correct submission of a team for a problem
type Solve struct {
	Model
	ContestID uuid.UUID
	TeamID    uuid.UUID
	ProblemID uuid.UUID
}

func (Solve) TableName() string {
	return "solves"
}

func (s Solve) GetID() uuid.UUID {
	return s.ID
}
