package models

import (
	"github.com/google/uuid"

	"github.com/keeper-project/homepage-api/internal/types"
)

type Team struct {
	Name        string
	Description string
	Members     []TeamMember `gorm:"foreignKey:TeamID"`
	Model
	ContestID uuid.UUID
	CreatorID uuid.UUID
	Score     int64
}

func (Team) TableName() string {
	return "teams"
}

func (t Team) GetID() uuid.UUID {
	return t.ID
}

// Members are included when they were preloaded
func (t Team) Response() types.TeamResponse {
	resp := types.TeamResponse{
		RegisterTime: t.CreatedAt,
		Name:         t.Name,
		Description:  t.Description,
		ID:           t.ID,
		ContestID:    t.ContestID,
		CreatorID:    t.CreatorID,
		Score:        t.Score,
	}

	for _, m := range t.Members {
		member := types.TeamMemberResponse{JoinedAt: m.CreatedAt, MemberID: m.MemberID}
		if m.Member != nil {
			member.NickName = m.Member.NickName
		}
		resp.Members = append(resp.Members, member)
	}

	return resp
}

func (t Team) Snapshot(deleted bool) types.TeamSnapshot {
	return types.TeamSnapshot{
		Name:        t.Name,
		Description: t.Description,
		ID:          t.ID,
		ContestID:   t.ContestID,
		Score:       t.Score,
		Deleted:     deleted,
	}
}

// One row per (contest, member), enforced by a unique index
type TeamMember struct {
	Member *Member `gorm:"foreignKey:MemberID"`
	Model
	TeamID    uuid.UUID
	ContestID uuid.UUID
	MemberID  uuid.UUID
}

func (TeamMember) TableName() string {
	return "ctf_team_members"
}

func (m TeamMember) GetID() uuid.UUID {
	return m.ID
}
