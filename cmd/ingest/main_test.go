package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	from, to, err := parseRange("2024-03-01", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, now, to)

	from, to, err = parseRange("2024-03-01T09:30:00Z", "2024-03-01T16:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour+30*time.Minute, to.Sub(from))

	_, _, err = parseRange("", "", now)
	require.Error(t, err)
	_, _, err = parseRange("2024-03-11", "", now)
	require.Error(t, err)
	_, _, err = parseRange("yesterday", "", now)
	require.Error(t, err)
}
