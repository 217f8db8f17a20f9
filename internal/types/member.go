package types

import (
	"time"

	"github.com/google/uuid"
)

type MemberRank string

const (
	MemberRankRegular   MemberRank = "regular"
	MemberRankExcellent MemberRank = "excellent"
)

type MemberType string

const (
	MemberTypeNonMember MemberType = "non_member"
	MemberTypeRegular   MemberType = "regular"
	MemberTypeDormant   MemberType = "dormant"
	MemberTypeGraduate  MemberType = "graduate"
	MemberTypeWithdrawn MemberType = "withdrawn"
)

type (
	EmailAuthRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SignUpRequest struct {
		LoginID  string `json:"login_id"  validate:"required,login_id"`
		Email    string `json:"email"     validate:"required,email"`
		Password string `json:"password"  validate:"required,min=8,max=72"`
		RealName string `json:"real_name" validate:"required,max=40"`
		NickName string `json:"nick_name" validate:"required,max=40"`
		AuthCode string `json:"auth_code" validate:"required,len=6,numeric"`
	}

	DuplicationQuery struct {
		LoginID string `query:"login_id"`
		Email   string `query:"email"`
	}

	MemberResponse struct {
		LoginID  string     `json:"login_id"`
		Email    string     `json:"email"`
		RealName string     `json:"real_name"`
		NickName string     `json:"nick_name"`
		Rank     MemberRank `json:"rank"`
		Type     MemberType `json:"type"`
		Roles    []string   `json:"roles"`
		ID       uuid.UUID  `json:"id"`
	}

	SignInResponse struct {
		ExpiresAt time.Time      `json:"expires_at"`
		Token     string         `json:"token"`
		Member    MemberResponse `json:"member"`
	}
)
