package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type flagRequest struct {
	Flag string `json:"flag" validate:"required,ctf_flag"`
}

type signUpRequest struct {
	LoginID string `json:"login_id" validate:"required,login_id"`
}

func TestFlagValidation(t *testing.T) {
	v := Create()

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, v.Validate(flagRequest{Flag: "keeper{s0me_fl4g}"}))
	})

	t.Run("ValidInnerSpaces", func(t *testing.T) {
		assert.NoError(t, v.Validate(flagRequest{Flag: "keeper{two words}"}))
	})

	t.Run("InvalidSurroundingWhitespace", func(t *testing.T) {
		assert.Error(t, v.Validate(flagRequest{Flag: " keeper{x}"}))
		assert.Error(t, v.Validate(flagRequest{Flag: "keeper{x}\n"}))
	})

	t.Run("InvalidControlCharacter", func(t *testing.T) {
		assert.Error(t, v.Validate(flagRequest{Flag: "keeper{\x00}"}))
	})

	t.Run("InvalidTooLong", func(t *testing.T) {
		assert.Error(t, v.Validate(flagRequest{Flag: strings.Repeat("a", MaxFlagLength+1)}))
	})
}

func TestLoginIDValidation(t *testing.T) {
	v := Create()

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, v.Validate(signUpRequest{LoginID: "keeper_01"}))
	})

	t.Run("InvalidShort", func(t *testing.T) {
		assert.Error(t, v.Validate(signUpRequest{LoginID: "abc"}))
	})

	t.Run("InvalidCharacters", func(t *testing.T) {
		assert.Error(t, v.Validate(signUpRequest{LoginID: "keeper-01"}))
	})
}

func TestAttachmentSize(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, ValidateAttachmentSize(MaxAttachmentSize), "max size should work")
	})

	t.Run("ValidSmall", func(t *testing.T) {
		assert.True(t, ValidateAttachmentSize(10), "small size should work")
	})

	t.Run("InvalidEmpty", func(t *testing.T) {
		assert.False(t, ValidateAttachmentSize(0), "empty file")
	})

	t.Run("Invalid", func(t *testing.T) {
		assert.False(t, ValidateAttachmentSize(MaxAttachmentSize+1), "too big")
	})
}
