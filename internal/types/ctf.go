package types

import (
	"time"

	"github.com/google/uuid"
)

type ProblemCategory string

const (
	ProblemCategoryMisc      ProblemCategory = "MISC"
	ProblemCategorySystem    ProblemCategory = "SYSTEM"
	ProblemCategoryReversing ProblemCategory = "REVERSING"
	ProblemCategoryForensic  ProblemCategory = "FORENSIC"
	ProblemCategoryWeb       ProblemCategory = "WEB"
	ProblemCategoryCrypto    ProblemCategory = "CRYPTO"
)

type ProblemType string

const (
	// fixed value per first solve
	ProblemTypeStandard ProblemType = "STANDARD"
	// value decays with the number of solving teams
	ProblemTypeDynamic ProblemType = "DYNAMIC"
)

type (
	ContestCreate struct {
		Name        string `json:"name"        validate:"required,max=100"`
		Description string `json:"description" validate:"max=2000"`
	}

	ContestResponse struct {
		RegisterTime time.Time `json:"register_time"`
		ID           uuid.UUID `json:"id"`
		CreatorID    uuid.UUID `json:"creator_id"`
		Name         string    `json:"name"`
		Description  string    `json:"description"`
		IsOpen       bool      `json:"is_open"`
		IsJoinable   bool      `json:"is_joinable"`
	}

	ProbMakerDesignate struct {
		MemberID uuid.UUID `json:"member_id" validate:"required"`
	}

	ProblemCreate struct {
		MinScore  *int64          `json:"min_score" validate:"omitempty,gte=0,ltefield=Score"`
		Decay     *int64          `json:"decay"     validate:"omitempty,gte=0"`
		Title     string          `json:"title"     validate:"required,max=200"`
		Content   string          `json:"content"   validate:"required"`
		Flag      string          `json:"flag"      validate:"required,ctf_flag"`
		Category  ProblemCategory `json:"category"  validate:"required,oneof=MISC SYSTEM REVERSING FORENSIC WEB CRYPTO"`
		Type      ProblemType     `json:"type"      validate:"required,oneof=STANDARD DYNAMIC"`
		ContestID uuid.UUID       `json:"contest_id" validate:"required"`
		Score     int64           `json:"score"     validate:"required,gt=0"`
	}

	FileResponse struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
	}

	FileURLResponse struct {
		ExpiresAt time.Time `json:"expires_at"`
		Name      string    `json:"name"`
		URL       string    `json:"url"`
	}

	// Privileged view, carries the flag
	ProblemAdminResponse struct {
		File        *FileResponse   `json:"file"`
		MinScore    *int64          `json:"min_score,omitempty"`
		Decay       *int64          `json:"decay,omitempty"`
		Title       string          `json:"title"`
		Content     string          `json:"content"`
		Flag        string          `json:"flag"`
		Category    ProblemCategory `json:"category"`
		Type        ProblemType     `json:"type"`
		ID          uuid.UUID       `json:"id"`
		ContestID   uuid.UUID       `json:"contest_id"`
		CreatorID   uuid.UUID       `json:"creator_id"`
		Score       int64           `json:"score"`
		SolvedCount int64           `json:"solved_count"`
		IsSolvable  bool            `json:"is_solvable"`
	}

	// Member view, never carries the flag
	ProblemResponse struct {
		File        *FileResponse   `json:"file"`
		Title       string          `json:"title"`
		Content     string          `json:"content"`
		Category    ProblemCategory `json:"category"`
		Type        ProblemType     `json:"type"`
		ID          uuid.UUID       `json:"id"`
		ContestID   uuid.UUID       `json:"contest_id"`
		BaseScore   int64           `json:"base_score"`
		Score       int64           `json:"score"`
		SolvedCount int64           `json:"solved_count"`
		Solved      bool            `json:"solved"`
	}

	TeamCreate struct {
		Name        string    `json:"name"        validate:"required,max=45"`
		Description string    `json:"description" validate:"max=200"`
		ContestID   uuid.UUID `json:"contest_id"  validate:"required"`
	}

	TeamModify struct {
		Name        Optional[string] `json:"name"`
		Description Optional[string] `json:"description"`
	}

	TeamMemberResponse struct {
		JoinedAt time.Time `json:"joined_at"`
		NickName string    `json:"nick_name"`
		MemberID uuid.UUID `json:"member_id"`
	}

	TeamResponse struct {
		RegisterTime time.Time            `json:"register_time"`
		Name         string               `json:"name"`
		Description  string               `json:"description"`
		Members      []TeamMemberResponse `json:"members,omitempty"`
		ID           uuid.UUID            `json:"id"`
		ContestID    uuid.UUID            `json:"contest_id"`
		CreatorID    uuid.UUID            `json:"creator_id"`
		Score        int64                `json:"score"`
	}

	// Last known state of a team a member left, Deleted when the member was the last one
	TeamSnapshot struct {
		Name        string    `json:"name"`
		Description string    `json:"description"`
		ID          uuid.UUID `json:"id"`
		ContestID   uuid.UUID `json:"contest_id"`
		Score       int64     `json:"score"`
		Deleted     bool      `json:"deleted"`
	}

	FlagSubmission struct {
		Flag string `json:"flag" validate:"required,ctf_flag"`
	}

	SubmissionResult struct {
		TeamID        uuid.UUID `json:"team_id"`
		Score         int64     `json:"score"`
		IsCorrect     bool      `json:"is_correct"`
		AlreadySolved bool      `json:"already_solved"`
	}

	SubmitLogQuery struct {
		ContestID string `query:"contest_id" validate:"required,uuid"`
		Page      int    `query:"page"       validate:"gte=0,lte=100000"`
		Size      int    `query:"size"       validate:"gte=0,lte=100"`
	}

	SubmitLogResponse struct {
		SubmitTime   time.Time `json:"submit_time"`
		TeamName     string    `json:"team_name"`
		ProblemTitle string    `json:"problem_title"`
		Flag         string    `json:"flag"`
		ID           uuid.UUID `json:"id"`
		TeamID       uuid.UUID `json:"team_id"`
		SubmitterID  uuid.UUID `json:"submitter_id"`
		ProblemID    uuid.UUID `json:"problem_id"`
		IsCorrect    bool      `json:"is_correct"`
	}

	Page[T any] struct {
		Content []T   `json:"content"`
		Page    int   `json:"page"`
		Size    int   `json:"size"`
		Total   int64 `json:"total"`
	}
)
