// Package ctf implements the contest lifecycle, team registry, flag
// submission and scoring over the database.
package ctf

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/upload"
	"github.com/keeper-project/homepage-api/internal/validator"
)

const name string = "github.com/keeper-project/homepage-api/internal/ctf"

var tracer = otel.Tracer(name)

// Largest problem attachment accepted
const MaxFileSize = validator.MaxAttachmentSize

type Service struct {
	DB       *gorm.DB
	Uploader upload.Uploader
	Scoring  config.ScoringConfig
	// Lifetime of presigned attachment urls
	PresignTTL time.Duration
	now        func() time.Time
}

func New(db *gorm.DB, uploader upload.Uploader, scoring config.ScoringConfig, presignTTL time.Duration) *Service {
	return &Service{
		DB:         db,
		Uploader:   uploader,
		Scoring:    scoring,
		PresignTTL: presignTTL,
		now:        time.Now,
	}
}

// Replaces gorm.ErrRecordNotFound in err with `sentinel`, leaves everything else alone
func notFound(err error, sentinel *apperr.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel.Wrap(err)
	}

	return err
}

func contestByID(tx *gorm.DB, id uuid.UUID) (*models.Contest, error) {
	var contest models.Contest
	err := tx.First(&contest, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, apperr.ContestNotFound)
	}

	return &contest, nil
}

// Takes the row lock that serializes submissions and recomputes of one contest
func lockContest(tx *gorm.DB, id uuid.UUID) (*models.Contest, error) {
	var contest models.Contest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&contest, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, apperr.ContestNotFound)
	}

	return &contest, nil
}

func problemByID(tx *gorm.DB, id uuid.UUID) (*models.Problem, error) {
	var problem models.Problem
	err := tx.First(&problem, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, apperr.ProblemNotFound)
	}

	return &problem, nil
}

func teamByID(tx *gorm.DB, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	err := tx.First(&team, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, apperr.TeamNotFound)
	}

	return &team, nil
}

// Membership row of `memberID` in the contest, TeamNotFound when there is none
func membershipOf(tx *gorm.DB, contestID, memberID uuid.UUID) (*models.TeamMember, error) {
	var membership models.TeamMember
	err := tx.First(&membership, "contest_id = ? AND member_id = ?", contestID, memberID).Error
	if err != nil {
		return nil, notFound(err, apperr.TeamNotFound)
	}

	return &membership, nil
}

func auditContext(contestID uuid.UUID, teamID *uuid.UUID, memberID uuid.UUID) audit.Context {
	c := audit.Context{
		ContestID: audit.ID(contestID),
		MemberID:  audit.ID(memberID),
	}
	if teamID != nil {
		c.TeamID = audit.ID(*teamID)
	}

	return c
}

// President or problem setter or the contest owner
func canAuthor(actor *models.Member, contest *models.Contest) bool {
	return actor.Roles.President || actor.Roles.ProblemSetter || contest.CreatorID == actor.ID
}

// President or the contest owner
func canDelete(actor *models.Member, contest *models.Contest) bool {
	return actor.Roles.President || contest.CreatorID == actor.ID
}
