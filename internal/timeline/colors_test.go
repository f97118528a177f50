package timeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioai/aircheck/internal/models"
)

func TestAssignColorsFixedTypes(t *testing.T) {
	t.Parallel()

	segments := []models.DetectionResult{
		{AdID: models.EmptyAdID, ClipType: models.ClipEmpty},
		{AdID: models.EmptyAdID, ClipType: models.ClipSpeech},
	}
	colors := AssignColors(segments)

	assert.Equal(t, colorEmpty, colors[ColorKey{AdID: models.EmptyAdID, ClipType: models.ClipEmpty}])
	assert.Equal(t, colorSpeech, colors[ColorKey{AdID: models.EmptyAdID, ClipType: models.ClipSpeech}])
}

// The same master must render with the same color on every fetch, in
// every occurrence.
func TestAssignColorsStableAcrossCalls(t *testing.T) {
	t.Parallel()

	segments := []models.DetectionResult{
		{AdID: 3, ClipType: models.ClipAd},
		{AdID: 3, ClipType: models.ClipAd},
		{AdID: 9, ClipType: models.ClipSong},
	}

	first := AssignColors(segments)
	second := AssignColors(segments)
	assert.Equal(t, first, second)
}

func TestAssignColorsDistinctMasters(t *testing.T) {
	t.Parallel()

	segments := []models.DetectionResult{
		{AdID: 1, ClipType: models.ClipAd},
		{AdID: 2, ClipType: models.ClipAd},
	}
	colors := AssignColors(segments)

	require.Len(t, colors, 2)
	for key, c := range colors {
		assert.True(t, strings.HasPrefix(c, "hsl("), "color for %+v should be hsl, got %q", key, c)
	}
}
