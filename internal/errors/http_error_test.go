package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpers(t *testing.T) {
	assert.Equal(t, http.StatusConflict, ErrConflict("taken").Code)
	assert.Equal(t, "taken", ErrConflict("taken").Error())
	assert.Equal(t, http.StatusInternalServerError, ErrInternal().Code)
	assert.Equal(t, http.StatusServiceUnavailable, ErrServiceUnavailable("retry").Code)
}
