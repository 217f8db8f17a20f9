package workererrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	inner := errors.New("connection refused")
	err := fmt.Errorf("rescore: %w", ExitErrorWrap(ExitCodeDatabase, inner))

	var exitErr ExitError
	require.ErrorAs(t, err, &exitErr)

	assert.Equal(t, ExitCodeDatabase, exitErr.Code)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "4: connection refused", exitErr.Error())
	assert.Equal(t, "2", ExitError{Code: ExitCodeUsage}.Error())
}
