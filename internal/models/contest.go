package models

import (
	"github.com/google/uuid"

	"github.com/keeper-project/homepage-api/internal/types"
)

type Contest struct {
	Name        string
	Description string
	Model
	CreatorID  uuid.UUID
	IsOpen     bool
	IsJoinable bool
}

func (Contest) TableName() string {
	return "contests"
}

func (c Contest) GetID() uuid.UUID {
	return c.ID
}

func (c Contest) Response() types.ContestResponse {
	return types.ContestResponse{
		RegisterTime: c.CreatedAt,
		ID:           c.ID,
		CreatorID:    c.CreatorID,
		Name:         c.Name,
		Description:  c.Description,
		IsOpen:       c.IsOpen,
		IsJoinable:   c.IsJoinable,
	}
}
