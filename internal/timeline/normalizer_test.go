package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioai/aircheck/internal/models"
)

func det(broadcastID int64, start, end float64) models.DetectionResult {
	return models.DetectionResult{
		AdID:             7,
		BroadcastID:      broadcastID,
		ClipType:         models.ClipAd,
		StartTimeSeconds: start,
		EndTimeSeconds:   end,
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()

	out := Normalize(nil, 60)

	require.Len(t, out, 1)
	assert.Equal(t, models.ClipEmpty, out[0].ClipType)
	assert.Equal(t, int64(models.EmptyAdID), out[0].AdID)
	assert.Equal(t, 0.0, out[0].StartTimeSeconds)
	assert.Equal(t, 60.0, out[0].EndTimeSeconds)
}

func TestNormalizeSortsAndFloors(t *testing.T) {
	t.Parallel()

	raw := []models.DetectionResult{
		det(1, 40.7, 50.2),
		det(1, 10.4, 20.9),
	}
	out := Normalize(raw, 60)

	require.Len(t, out, 5)
	assert.Equal(t, models.ClipEmpty, out[0].ClipType)
	assert.Equal(t, 0.0, out[0].StartTimeSeconds)
	assert.Equal(t, 9.0, out[0].EndTimeSeconds)

	assert.Equal(t, models.ClipAd, out[1].ClipType)
	assert.Equal(t, 10.0, out[1].StartTimeSeconds)
	assert.Equal(t, 20.0, out[1].EndTimeSeconds)

	assert.Equal(t, models.ClipEmpty, out[2].ClipType)
	assert.Equal(t, 21.0, out[2].StartTimeSeconds)
	assert.Equal(t, 39.0, out[2].EndTimeSeconds)

	assert.Equal(t, 40.0, out[3].StartTimeSeconds)
	assert.Equal(t, 50.0, out[3].EndTimeSeconds)

	assert.Equal(t, models.ClipEmpty, out[4].ClipType)
	assert.Equal(t, 51.0, out[4].StartTimeSeconds)
	assert.Equal(t, 60.0, out[4].EndTimeSeconds)
}

// A floored start landing exactly on the previous floored end is bumped
// forward one second; no empty gap appears between the two regions.
func TestNormalizeBumpsTouchingBoundary(t *testing.T) {
	t.Parallel()

	raw := []models.DetectionResult{
		det(1, 0, 10),
		det(1, 10.3, 20),
	}
	out := Normalize(raw, 60)

	require.Len(t, out, 3)
	assert.Equal(t, 10.0, out[0].EndTimeSeconds)
	assert.Equal(t, 11.0, out[1].StartTimeSeconds)
	assert.Equal(t, models.ClipEmpty, out[2].ClipType)
	assert.Equal(t, 21.0, out[2].StartTimeSeconds)
}

// Genuine overlaps are not corrected; only exact boundary touches are.
func TestNormalizeLeavesOverlapsAlone(t *testing.T) {
	t.Parallel()

	raw := []models.DetectionResult{
		det(1, 0, 15),
		det(1, 12, 20),
	}
	out := Normalize(raw, 60)

	require.Len(t, out, 3)
	assert.Equal(t, 15.0, out[0].EndTimeSeconds)
	assert.Equal(t, 12.0, out[1].StartTimeSeconds)
}

func TestNormalizeNoTailWhenCovered(t *testing.T) {
	t.Parallel()

	raw := []models.DetectionResult{det(1, 0, 59)}
	out := Normalize(raw, 60)

	require.Len(t, out, 1)
	assert.Equal(t, models.ClipAd, out[0].ClipType)
}

func TestNormalizeAdjacentSegmentsNeverTouch(t *testing.T) {
	t.Parallel()

	raw := []models.DetectionResult{
		det(1, 5.9, 14.1),
		det(1, 14.8, 30.0),
		det(1, 47.2, 52.6),
	}
	out := Normalize(raw, 90)

	for i := 1; i < len(out); i++ {
		assert.Equal(t, out[i-1].EndTimeSeconds+1, out[i].StartTimeSeconds,
			"segment %d must start one second after its predecessor ends", i)
	}
	assert.Equal(t, 0.0, out[0].StartTimeSeconds)
	assert.Equal(t, 90.0, out[len(out)-1].EndTimeSeconds)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	raw := []models.DetectionResult{det(1, 10.4, 20.9)}
	Normalize(raw, 60)

	assert.Equal(t, 10.4, raw[0].StartTimeSeconds)
	assert.Equal(t, 20.9, raw[0].EndTimeSeconds)
}
