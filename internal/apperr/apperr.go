// Package apperr holds the typed errors domain services return.
// Only the HTTP error handler turns them into responses.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAccessDenied
	KindUnauthenticated
	KindStateConflict
	KindInvalid
	KindDataIntegrity
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAccessDenied:
		return "access_denied"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindStateConflict:
		return "state_conflict"
	case KindInvalid:
		return "invalid"
	case KindDataIntegrity:
		return "data_integrity"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

type Error struct {
	Err error
	// Catalog key of the message
	Key string
	// Replaces the catalog message when set
	Override string
	Kind     Kind
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Key)
	}

	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Key, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errors match when kind and key match, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind && t.Key == e.Key
}

func New(kind Kind, key string) *Error {
	return &Error{Kind: kind, Key: key}
}

// Copy of e carrying the cause
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// Copy of e with a message that replaces the catalog text
func (e *Error) WithOverride(msg string) *Error {
	c := *e
	c.Override = msg
	return &c
}

// Kind of the first *Error in err's chain, KindUnknown if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

var (
	ContestNotFound       = New(KindNotFound, "contest_not_found")
	ProblemNotFound       = New(KindNotFound, "problem_not_found")
	TeamNotFound          = New(KindNotFound, "team_not_found")
	MemberNotFound        = New(KindNotFound, "member_not_found")
	BookNotFound          = New(KindNotFound, "book_not_found")
	BorrowNotFound        = New(KindNotFound, "borrow_not_found")
	FileNotFound          = New(KindNotFound, "file_not_found")
	PostNotFound          = New(KindNotFound, "post_not_found")
	CategoryNotFound      = New(KindNotFound, "category_not_found")
	CommentNotFound       = New(KindNotFound, "comment_not_found")
	AttachmentNotFound    = New(KindNotFound, "attachment_not_found")
	AboutTitleNotFound    = New(KindNotFound, "about_title_not_found")
	AboutSubtitleNotFound = New(KindNotFound, "about_subtitle_not_found")
	AboutContentNotFound  = New(KindNotFound, "about_content_not_found")
	NotFound              = New(KindNotFound, "not_found")

	AccessDenied = New(KindAccessDenied, "access_denied")
	SecretPost   = New(KindAccessDenied, "secret_post")

	Unauthenticated = New(KindUnauthenticated, "unauthenticated")
	SignInFailed    = New(KindUnauthenticated, "sign_in_failed")

	ContestNotJoinable = New(KindStateConflict, "contest_not_joinable")
	ContestClosed      = New(KindStateConflict, "contest_closed")
	ProblemClosed      = New(KindStateConflict, "problem_closed")
	AlreadyInTeam      = New(KindStateConflict, "already_in_team")
	NotTeamOwner       = New(KindStateConflict, "not_team_owner")
	BookOverTheMax     = New(KindStateConflict, "book_over_the_max")
	BookNotEnough      = New(KindStateConflict, "book_not_enough")
	CommentNotAllowed  = New(KindStateConflict, "comment_not_allowed")

	InvalidRequest  = New(KindInvalid, "invalid_request")
	InvalidAuthCode = New(KindInvalid, "invalid_auth_code")
	FileTooLarge    = New(KindInvalid, "file_too_large")
	TooManyFiles    = New(KindInvalid, "too_many_files")

	DataIntegrityViolation = New(KindDataIntegrity, "data_integrity_violation")
	ProblemHasSubmissions  = New(KindDataIntegrity, "problem_has_submissions")
	DuplicateLoginID       = New(KindDataIntegrity, "duplicate_login_id")
	DuplicateEmail         = New(KindDataIntegrity, "duplicate_email")

	RateLimited = New(KindRateLimited, "rate_limited")

	Unknown = New(KindUnknown, "unknown")
)
