package timeline

import (
	"math"
	"sort"

	"github.com/audioai/aircheck/internal/models"
)

// Normalize turns the raw, unordered detection results for one broadcast
// into a sorted, gap-free, non-overlapping segment timeline covering
// [0, totalDuration]. The analysis pipeline only reports positive
// detections; the console needs every second of the broadcast to be
// clickable and colorable, so the gaps between detections are filled with
// synthesized empty segments (ad_id = models.EmptyAdID).
//
// Start and end times are floored to whole seconds. When a floored start
// lands exactly on the previous region's floored end, the start is bumped
// forward one second so occupied intervals never touch; adjacent segments
// therefore always satisfy next.start == prev.end + 1. The bump can invert
// a sub-second source interval (start > end); such intervals pass through
// unrejected. Genuine overlaps (start < previous end) are likewise left
// as-is: only exact boundary touches are corrected.
func Normalize(raw []models.DetectionResult, totalDuration int) []models.DetectionResult {
	regions := make([]models.DetectionResult, len(raw))
	copy(regions, raw)

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].StartTimeSeconds < regions[j].StartTimeSeconds
	})

	for i := range regions {
		regions[i].StartTimeSeconds = math.Floor(regions[i].StartTimeSeconds)
		regions[i].EndTimeSeconds = math.Floor(regions[i].EndTimeSeconds)
		if i > 0 && regions[i].StartTimeSeconds == regions[i-1].EndTimeSeconds {
			regions[i].StartTimeSeconds++
		}
	}

	out := make([]models.DetectionResult, 0, 2*len(regions)+1)
	lastEnd := -1.0

	for _, r := range regions {
		if r.StartTimeSeconds > lastEnd+1 {
			out = append(out, emptySegment(r.BroadcastID, lastEnd+1, r.StartTimeSeconds-1))
		}
		out = append(out, r)
		lastEnd = r.EndTimeSeconds
	}

	if lastEnd < float64(totalDuration)-1 {
		var broadcastID int64
		if len(regions) > 0 {
			broadcastID = regions[0].BroadcastID
		}
		out = append(out, emptySegment(broadcastID, lastEnd+1, float64(totalDuration)))
	}

	return out
}

func emptySegment(broadcastID int64, start, end float64) models.DetectionResult {
	return models.DetectionResult{
		AdID:             models.EmptyAdID,
		BroadcastID:      broadcastID,
		ClipType:         models.ClipEmpty,
		StartTimeSeconds: start,
		EndTimeSeconds:   end,
		DurationSeconds:  end - start,
	}
}
