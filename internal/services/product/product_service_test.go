package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHarvestDate(t *testing.T) {
	got, err := parseHarvestDate(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	empty := ""
	got, err = parseHarvestDate(&empty)
	require.NoError(t, err)
	assert.Nil(t, got)

	dateOnly := "2026-09-15"
	got, err = parseHarvestDate(&dateOnly)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), got.UTC())

	rfc := "2026-09-15T08:30:00Z"
	got, err = parseHarvestDate(&rfc)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 8, got.UTC().Hour())

	bad := "15/09/2026"
	_, err = parseHarvestDate(&bad)
	assert.Error(t, err)
}
