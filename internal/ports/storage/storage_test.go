package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID_IsValid(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 24)
	assert.True(t, ValidID(id))
	assert.NotEqual(t, id, NewID())
}

func TestValidID_RejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "zzzzzzzzzzzzzzzzzzzzzzzz", "507f1f77bcf86cd79943901", "507f1f77bcf86cd7994390111"} {
		assert.False(t, ValidID(s), s)
	}
	assert.True(t, ValidID("507f1f77bcf86cd799439011"))
}
