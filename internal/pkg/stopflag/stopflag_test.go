package stopflag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlag(t *testing.T) {
	f := New()
	assert.NoError(t, f.Check())

	f.Set()
	assert.True(t, f.IsSet())
	assert.ErrorIs(t, f.Check(), ErrStopped)

	f.Clear()
	assert.False(t, f.IsSet())
}

func TestFlag_Nil(t *testing.T) {
	var f *Flag
	assert.False(t, f.IsSet())
	assert.NoError(t, f.Check())
}
