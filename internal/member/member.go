// Package member handles sign up and member lookups.
package member

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/mail"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/internal/member")

type Service struct {
	DB     *gorm.DB
	Codes  CodeStore
	Mailer mail.Mailer
}

func New(db *gorm.DB, codes CodeStore, mailer mail.Mailer) *Service {
	return &Service{DB: db, Codes: codes, Mailer: mailer}
}

// Mails a fresh sign up code to `email`
func (s *Service) RequestEmailAuth(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "RequestEmailAuth")
	defer span.End()

	code, err := generateCode()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate code")
		return err
	}

	err = s.Codes.Save(ctx, email, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store code")
		return err
	}

	err = s.Mailer.Send(ctx, mail.Message{
		To:      email,
		Subject: "[KEEPER] Sign up verification code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(CodeTTL.Minutes())),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send code")
		return fmt.Errorf("failed to send verification mail: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "sent code")
	return nil
}

// Creates a regular member once the mailed code checks out
func (s *Service) SignUp(ctx context.Context, req types.SignUpRequest) (*models.Member, error) {
	ctx, span := tracer.Start(ctx, "SignUp", trace.WithAttributes(
		attribute.String("login_id", req.LoginID),
	))
	defer span.End()

	ok, err := s.Codes.Consume(ctx, req.Email, req.AuthCode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check code")
		return nil, err
	}
	if !ok {
		span.SetStatus(codes.Error, "wrong code")
		return nil, apperr.InvalidAuthCode
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to hash password")
		return nil, err
	}

	member := models.Member{
		LoginID:  req.LoginID,
		Email:    req.Email,
		RealName: req.RealName,
		NickName: req.NickName,
		Password: hash,
		Rank:     types.MemberRankRegular,
		Type:     types.MemberTypeRegular,
		Roles:    models.Roles{Member: true},
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := models.Exists[models.Member](ctx, tx, "login_id = ?", req.LoginID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.DuplicateLoginID
		}

		taken, err = models.Exists[models.Member](ctx, tx, "email = ?", req.Email)
		if err != nil {
			return err
		}
		if taken {
			return apperr.DuplicateEmail
		}

		return tx.Create(&member).Error
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create member")
		return nil, err
	}

	span.SetAttributes(attribute.String("member.id", member.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "signed up")
	return &member, nil
}

// True when the login id is taken
func (s *Service) CheckLoginID(ctx context.Context, loginID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "CheckLoginID")
	defer span.End()

	taken, err := models.Exists[models.Member](ctx, s.DB, "login_id = ?", loginID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check login id")
		return false, err
	}

	span.SetStatus(codes.Ok, "checked login id")
	return taken, nil
}

// True when the email is taken
func (s *Service) CheckEmail(ctx context.Context, email string) (bool, error) {
	ctx, span := tracer.Start(ctx, "CheckEmail")
	defer span.End()

	taken, err := models.Exists[models.Member](ctx, s.DB, "email = ?", email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check email")
		return false, err
	}

	span.SetStatus(codes.Ok, "checked email")
	return taken, nil
}

func (s *Service) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	ctx, span := tracer.Start(ctx, "GetMember", trace.WithAttributes(
		attribute.String("member.id", id.String()),
	))
	defer span.End()

	member, err := models.ByID[models.Member](ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperr.MemberNotFound.Wrap(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get member")
		return nil, err
	}

	span.SetStatus(codes.Ok, "got member")
	return member, nil
}

// Looks a member up by login id, nil when there is none
func (s *Service) ByLoginID(ctx context.Context, loginID string) (*models.Member, error) {
	ctx, span := tracer.Start(ctx, "ByLoginID", trace.WithAttributes(
		attribute.String("login_id", loginID),
	))
	defer span.End()

	var member models.Member
	err := s.DB.WithContext(ctx).Where("login_id = ?", loginID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "no such member")
			return nil, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get member")
		return nil, err
	}

	span.SetStatus(codes.Ok, "got member")
	return &member, nil
}
