package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	wrapped := fmt.Errorf("ctx: %w", Forbidden("no access"))
	got := From(wrapped)
	assert.Equal(t, http.StatusForbidden, got.Status)
	assert.Equal(t, "no access", got.Message)

	boom := errors.New("db down")
	got = From(boom)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, "Internal server error", got.Message)
	assert.ErrorIs(t, got, boom)
}
