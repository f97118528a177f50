package waveform

import (
	"math"

	"github.com/audioai/aircheck/internal/models"
)

// Overlay is a classified segment projected into the visible window,
// positioned in percent of the rendered width so the client can lay it
// over the bar chart directly.
type Overlay struct {
	SegmentIndex int             `json:"segment_index"`
	ClipType     models.ClipType `json:"clip_type"`
	AdID         int64           `json:"ad_id"`
	Label        string          `json:"label"`
	LeftPct      float64         `json:"left_pct"`
	WidthPct     float64         `json:"width_pct"`
	Color        string          `json:"color,omitempty"`
	// MarkerPct is the center of the clickable designation affordance,
	// present only on empty segments.
	MarkerPct float64 `json:"marker_pct,omitempty"`
}

// Frame is one rendered view of the waveform: downsampled bar heights
// for the visible amplitude slice plus the segment overlays that
// intersect the window.
type Frame struct {
	Viewport Viewport  `json:"viewport"`
	Bars     []float64 `json:"bars"`
	Overlays []Overlay `json:"overlays"`
}

// Render downsamples the full-duration amplitude series to the visible
// window and computes overlay geometry for every segment intersecting it.
// widthPx is the rendered pixel width, barWidthPx the width of one bar.
// The bucket reducer (max-min) is deterministic so repeated renders of
// the same window produce the same bars.
func Render(amps []float64, vp Viewport, segments []models.DetectionResult, widthPx, barWidthPx int) Frame {
	frame := Frame{Viewport: vp}
	if len(amps) == 0 || vp.Total <= 0 || widthPx <= 0 || barWidthPx <= 0 {
		return frame
	}

	pointsPerSecond := float64(len(amps)) / vp.Total
	lo := int(math.Floor(vp.Start * pointsPerSecond))
	hi := int(math.Floor(vp.End() * pointsPerSecond))
	if lo < 0 {
		lo = 0
	}
	if hi > len(amps) {
		hi = len(amps)
	}
	if hi <= lo {
		return frame
	}
	visible := amps[lo:hi]

	numBars := widthPx / barWidthPx
	if numBars < 1 {
		numBars = 1
	}
	if numBars > len(visible) {
		numBars = len(visible)
	}
	bucketSize := len(visible) / numBars
	if bucketSize < 1 {
		bucketSize = 1
	}

	frame.Bars = make([]float64, 0, numBars)
	for i := 0; i < numBars; i++ {
		start := i * bucketSize
		if start >= len(visible) {
			break
		}
		end := start + bucketSize
		if end > len(visible) {
			end = len(visible)
		}
		min, max := visible[start], visible[start]
		for _, a := range visible[start+1 : end] {
			if a < min {
				min = a
			}
			if a > max {
				max = a
			}
		}
		frame.Bars = append(frame.Bars, max-min)
	}

	for i, seg := range segments {
		if seg.EndTimeSeconds < vp.Start || seg.StartTimeSeconds > vp.End() {
			continue
		}
		ov := Overlay{
			SegmentIndex: i,
			ClipType:     seg.ClipType,
			AdID:         seg.AdID,
			Label:        segmentLabel(seg),
			LeftPct:      (seg.StartTimeSeconds - vp.Start) / vp.Duration * 100,
			WidthPct:     (seg.EndTimeSeconds - seg.StartTimeSeconds + 1) / vp.Duration * 100,
		}
		if seg.ClipType == models.ClipEmpty {
			ov.MarkerPct = ov.LeftPct + ov.WidthPct/2
		}
		frame.Overlays = append(frame.Overlays, ov)
	}

	return frame
}

// TimeAt maps a click x-coordinate on the rendered waveform to a
// broadcast time, for click-to-seek.
func (v Viewport) TimeAt(clickX, widthPx float64) float64 {
	if widthPx <= 0 {
		return v.Start
	}
	return v.Start + (clickX/widthPx)*v.Duration
}

// XFor is the inverse of TimeAt: it maps a broadcast time to an
// x-coordinate on the rendered waveform.
func (v Viewport) XFor(t, widthPx float64) float64 {
	if v.Duration <= 0 {
		return 0
	}
	return (t - v.Start) / v.Duration * widthPx
}

// PlayheadPct returns the playhead marker position in percent of the
// rendered width. ok is false when the playhead falls outside the
// visible window and should not be drawn.
func (v Viewport) PlayheadPct(currentTime float64) (pct float64, ok bool) {
	if v.Duration <= 0 {
		return 0, false
	}
	pct = (currentTime - v.Start) / v.Duration * 100
	if pct < 0 || pct > 100 {
		return pct, false
	}
	return pct, true
}

func segmentLabel(seg models.DetectionResult) string {
	if seg.ClipType == models.ClipEmpty {
		return ""
	}
	if seg.Description == "" {
		return seg.Brand
	}
	return seg.Brand + ": " + seg.Description
}
