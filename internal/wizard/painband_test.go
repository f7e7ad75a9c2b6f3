package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandFor(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{0, "none"},
		{1, "mild"},
		{4, "mild"},
		{5, "moderate"},
		{7, "moderate"},
		{8, "severe"},
		{10, "severe"},
	}
	for _, tc := range tests {
		band, err := BandFor(tc.level)
		require.NoError(t, err)
		assert.Equal(t, tc.want, band.Name, "level %d", tc.level)
		assert.NotEmpty(t, band.Color)
	}

	_, err := BandFor(-1)
	assert.Error(t, err)
	_, err = BandFor(11)
	assert.Error(t, err)
}

func TestBandColorsAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, lvl := range []int{0, 2, 6, 9} {
		band, err := BandFor(lvl)
		require.NoError(t, err)
		assert.False(t, seen[band.Color], "color %s reused", band.Color)
		seen[band.Color] = true
	}
}
