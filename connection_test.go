package ttyarb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionOpenNoPath(t *testing.T) {
	c := newConnection()
	_, err := c.Open()
	require.Error(t, err)
	assert.Equal(t, KindNotConnected, KindOf(err))
	assert.False(t, c.IsOpen())
}

func TestConnectionOpenBadPath(t *testing.T) {
	c := newConnection()
	c.SetPath("/does/not/exist/on/this/machine")
	_, err := c.Open()
	require.Error(t, err)
	assert.Equal(t, KindNotConnected, KindOf(err))
}

func TestConnectionCooloffGatesReopen(t *testing.T) {
	c := newConnection()
	c.SetPath("/does/not/exist/on/this/machine")
	c.SetCooloffDuration(time.Hour)

	_, err := c.Open()
	require.Error(t, err)
	assert.Equal(t, KindNotConnected, KindOf(err))

	_, err = c.Open()
	require.Error(t, err)
	assert.Equal(t, KindQuotaExceeded, KindOf(err))
	assert.True(t, IsTemporary(err))
}

func TestConnectionCooloffDisabledRetriesImmediately(t *testing.T) {
	c := newConnection()
	c.SetPath("/does/not/exist/on/this/machine")
	// Cool-off is disabled by default (zero value).

	_, err1 := c.Open()
	require.Error(t, err1)
	_, err2 := c.Open()
	require.Error(t, err2)
	// Both attempts should fail the same way - NotConnected, not
	// QuotaExceeded - since cool-off is off.
	assert.Equal(t, KindNotConnected, KindOf(err2))
}

func TestConnectionStatusReflectsCooloff(t *testing.T) {
	c := newConnection()
	c.SetPath("/does/not/exist/on/this/machine")
	c.SetCooloffDuration(time.Minute)

	_, err := c.Open()
	require.Error(t, err)

	s := c.Status()
	assert.False(t, s.Open)
	assert.True(t, s.CoolingOff)
	assert.True(t, s.CoolRemaining > 0)
	assert.True(t, s.CoolRemaining <= time.Minute)
	assert.NotEmpty(t, s.String())
}

func TestConnectionCloseIdempotent(t *testing.T) {
	c := newConnection()
	c.Close()
	c.Close()
	assert.False(t, c.IsOpen())
}
