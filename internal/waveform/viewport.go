package waveform

// MinZoomSeconds is the smallest visible time window; zooming in past
// this is clamped.
const MinZoomSeconds = 10.0

// zoomStep is the multiplicative duration change per wheel tick.
const zoomStep = 1.1

// Viewport is the visible time window over a broadcast. Invariants:
// MinZoomSeconds <= Duration <= Total, 0 <= Start, Start+Duration <= Total.
// Each waveform instance owns its own viewport; it is never shared across
// broadcasts.
type Viewport struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Total    float64 `json:"total"`
}

func NewViewport(totalDuration float64) Viewport {
	return Viewport{Start: 0, Duration: totalDuration, Total: totalDuration}
}

// ZoomAt shrinks (direction < 0) or grows (direction > 0) the window by
// one zoom step, keeping the time under the pointer at the same pointer
// fraction. pointerFraction is the pointer's horizontal position within
// the rendered waveform, in [0, 1].
func (v *Viewport) ZoomAt(pointerFraction float64, direction int) {
	if pointerFraction < 0 {
		pointerFraction = 0
	} else if pointerFraction > 1 {
		pointerFraction = 1
	}

	pointerTime := v.Start + pointerFraction*v.Duration

	newDuration := v.Duration
	if direction < 0 {
		newDuration /= zoomStep
	} else {
		newDuration *= zoomStep
	}
	if newDuration < MinZoomSeconds {
		newDuration = MinZoomSeconds
	}
	if newDuration > v.Total {
		newDuration = v.Total
	}

	v.Duration = newDuration
	v.setStart(pointerTime - pointerFraction*newDuration)
}

// PanTo moves the window start directly, clamped to valid bounds. Used
// when the operator drags the range slider.
func (v *Viewport) PanTo(newStart float64) {
	v.setStart(newStart)
}

// Reset restores the full-duration view.
func (v *Viewport) Reset() {
	v.Start = 0
	v.Duration = v.Total
}

// End returns the window's end time.
func (v *Viewport) End() float64 {
	return v.Start + v.Duration
}

func (v *Viewport) setStart(start float64) {
	maxStart := v.Total - v.Duration
	if start > maxStart {
		start = maxStart
	}
	if start < 0 {
		start = 0
	}
	v.Start = start
}
