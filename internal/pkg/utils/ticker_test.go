package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTicker_UntilTrue(t *testing.T) {
	calls := 0
	ok := NewTicker(context.Background(), time.Millisecond, func() bool {
		calls++
		return calls == 3
	}, false)
	assert.True(t, ok)
	assert.Equal(t, 3, calls)
}

func TestNewTicker_Immediate(t *testing.T) {
	calls := 0
	ok := NewTicker(context.Background(), time.Hour, func() bool {
		calls++
		return true
	}, true)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestNewTicker_ContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok := NewTicker(ctx, time.Millisecond, func() bool { return false }, false)
	assert.False(t, ok)
}
