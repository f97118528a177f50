package waveform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioai/aircheck/internal/models"
)

func TestRenderFullView(t *testing.T) {
	t.Parallel()

	amps := Amplitudes("render-full.mp3", 600)
	vp := NewViewport(600)

	frame := Render(amps, vp, nil, 600, 2)

	require.Len(t, frame.Bars, 300)
	for _, b := range frame.Bars {
		assert.GreaterOrEqual(t, b, 0.0)
		assert.Less(t, b, 1.0)
	}
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	amps := Amplitudes("render-det.mp3", 600)
	vp := NewViewport(600)
	vp.ZoomAt(0.3, -1)

	a := Render(amps, vp, nil, 800, 3)
	b := Render(amps, vp, nil, 800, 3)
	assert.Equal(t, a, b)
}

func TestRenderZoomedSliceShrinks(t *testing.T) {
	t.Parallel()

	amps := Amplitudes("render-zoom.mp3", 600)
	vp := Viewport{Start: 100, Duration: 50, Total: 600}

	frame := Render(amps, vp, nil, 600, 2)

	// 50 visible points cannot fill 300 bars; one bar per point.
	assert.Len(t, frame.Bars, 50)
}

func TestRenderOverlayGeometry(t *testing.T) {
	t.Parallel()

	amps := Amplitudes("render-ov.mp3", 600)
	vp := Viewport{Start: 100, Duration: 100, Total: 600}
	segments := []models.DetectionResult{
		{ClipType: models.ClipAd, AdID: 4, Brand: "Acme", Description: "Spring Sale", StartTimeSeconds: 150, EndTimeSeconds: 160},
		{ClipType: models.ClipAd, AdID: 5, StartTimeSeconds: 0, EndTimeSeconds: 50},
		{ClipType: models.ClipEmpty, AdID: models.EmptyAdID, StartTimeSeconds: 161, EndTimeSeconds: 199},
	}

	frame := Render(amps, vp, segments, 600, 2)

	require.Len(t, frame.Overlays, 2, "segments outside the window are skipped")

	ad := frame.Overlays[0]
	assert.Equal(t, 0, ad.SegmentIndex)
	assert.InDelta(t, 50.0, ad.LeftPct, 1e-9)
	assert.InDelta(t, 11.0, ad.WidthPct, 1e-9)
	assert.Equal(t, "Acme: Spring Sale", ad.Label)
	assert.Zero(t, ad.MarkerPct)

	gap := frame.Overlays[1]
	assert.Equal(t, 2, gap.SegmentIndex)
	assert.Equal(t, "", gap.Label)
	assert.InDelta(t, gap.LeftPct+gap.WidthPct/2, gap.MarkerPct, 1e-9)
}

func TestRenderEmptyInputs(t *testing.T) {
	t.Parallel()

	frame := Render(nil, NewViewport(600), nil, 600, 2)
	assert.Empty(t, frame.Bars)
	assert.Empty(t, frame.Overlays)

	frame = Render(Amplitudes("x", 100), Viewport{}, nil, 600, 2)
	assert.Empty(t, frame.Bars)
}

func TestTimeAt(t *testing.T) {
	t.Parallel()

	vp := Viewport{Start: 100, Duration: 100, Total: 600}
	assert.InDelta(t, 125.0, vp.TimeAt(50, 200), 1e-9)
	assert.InDelta(t, 100.0, vp.TimeAt(0, 200), 1e-9)
	assert.Equal(t, 100.0, vp.TimeAt(50, 0), "zero width must not divide")
}

func TestXForInvertsTimeAt(t *testing.T) {
	t.Parallel()

	vp := Viewport{Start: 100, Duration: 100, Total: 600}
	assert.InDelta(t, 50.0, vp.XFor(125, 200), 1e-9)
	assert.InDelta(t, 0.0, vp.XFor(100, 200), 1e-9)
	assert.InDelta(t, 125.0, vp.TimeAt(vp.XFor(125, 200), 200), 1e-9)
}

func TestPlayheadPct(t *testing.T) {
	t.Parallel()

	vp := Viewport{Start: 100, Duration: 100, Total: 600}

	pct, ok := vp.PlayheadPct(150)
	assert.True(t, ok)
	assert.InDelta(t, 50.0, pct, 1e-9)

	_, ok = vp.PlayheadPct(99)
	assert.False(t, ok, "playhead before the window is not drawn")

	_, ok = vp.PlayheadPct(201)
	assert.False(t, ok, "playhead past the window is not drawn")
}
