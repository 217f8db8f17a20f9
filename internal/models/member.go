package models

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/types"
)

// Closed capability set. Every field must be a bool.
type Roles struct {
	President     bool `json:"president"`
	ProblemSetter bool `json:"problem_setter"`
	Librarian     bool `json:"librarian"`
	Member        bool `json:"member"`
}

// Names of the granted roles, in field order
func (r Roles) Names() []string {
	val := reflect.ValueOf(r)
	typ := val.Type()

	names := make([]string, 0, typ.NumField())
	for i := range typ.NumField() {
		if val.Field(i).Kind() == reflect.Bool && val.Field(i).Bool() {
			names = append(names, strings.Split(typ.Field(i).Tag.Get("json"), ",")[0])
		}
	}

	return names
}

type Member struct {
	LoginID  string
	Email    string
	RealName string
	NickName string
	Password string           `json:"-"` // argon2id hash
	Rank     types.MemberRank `gorm:"type:text"`
	Type     types.MemberType `gorm:"type:text"`
	Model
	Roles Roles `gorm:"type:jsonb;serializer:json"`
}

func (Member) TableName() string {
	return "members"
}

func (m Member) GetID() uuid.UUID {
	return m.ID
}

func (m Member) Response() types.MemberResponse {
	return types.MemberResponse{
		ID:       m.ID,
		LoginID:  m.LoginID,
		Email:    m.Email,
		RealName: m.RealName,
		NickName: m.NickName,
		Rank:     m.Rank,
		Type:     m.Type,
		Roles:    m.Roles.Names(),
	}
}

// Upserts the configured admin accounts by login id with president rights
func LoadAdminsFromConfig(ctx context.Context, db *gorm.DB, admins []config.AdminAccount) error {
	ctx, span := tracer.Start(ctx, "LoadAdminsFromConfig")
	defer span.End()

	db = db.WithContext(ctx)

	if len(admins) == 0 {
		span.AddEvent("no admins to upsert")
		span.SetStatus(codes.Ok, "nothing to do")
		return nil
	}

	toUpsert := make([]*Member, len(admins))
	for i, admin := range admins {
		hash, err := argon2id.CreateHash(admin.Password, argon2id.DefaultParams)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error creating hash for admin password")
			span.SetAttributes(attribute.String("failedAdmin", admin.LoginID))
			return err
		}

		toUpsert[i] = &Member{
			LoginID:  admin.LoginID,
			Email:    admin.Email,
			RealName: admin.RealName,
			NickName: admin.LoginID,
			Password: hash,
			Rank:     types.MemberRankRegular,
			Type:     types.MemberTypeRegular,
			Roles:    Roles{President: true, Member: true},
		}
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "login_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "real_name", "password", "roles"}),
	}).Create(toUpsert)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to upsert admins")
		return fmt.Errorf("failed to upsert admins: %w", result.Error)
	}

	span.SetAttributes(attribute.Int64("rowsAffected", result.RowsAffected))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "upserted admins")
	return nil
}
