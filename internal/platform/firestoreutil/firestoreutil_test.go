package firestoreutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNotFound(status.Error(codes.NotFound, "missing")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.True(t, IsAlreadyExists(status.Error(codes.AlreadyExists, "dup")))
	assert.False(t, IsAlreadyExists(status.Error(codes.NotFound, "missing")))
}
