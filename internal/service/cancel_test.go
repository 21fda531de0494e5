package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancellationController_RequestIsMonotonic(t *testing.T) {
	ctrl := NewCancellationController(context.Background())

	assert.False(t, ctrl.Requested())
	assert.NoError(t, ctrl.Context().Err())

	ctrl.Request()
	assert.True(t, ctrl.Requested())
	assert.Error(t, ctrl.Context().Err())

	// Idempotent: repeat requests change nothing.
	ctrl.Request()
	ctrl.Request()
	assert.True(t, ctrl.Requested())
}

func TestCancellationController_ParentCancellationCounts(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctrl := NewCancellationController(parent)

	assert.False(t, ctrl.Requested())
	cancel()
	assert.True(t, ctrl.Requested())
}
