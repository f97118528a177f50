package timeline

import (
	"fmt"

	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/waveform"
)

// ColorKey identifies one master clip within one clip type; every
// occurrence of the same master gets the same overlay color.
type ColorKey struct {
	AdID     int64
	ClipType models.ClipType
}

const (
	colorEmpty  = "hsl(0, 0%, 18%)"
	colorSpeech = "hsl(215, 16%, 47%)"
)

// AssignColors assigns an overlay color to every distinct (ad_id,
// clip_type) key present in segments. Empty and speech segments use
// fixed colors; songs get a green hue and ads an orange hue, drawn from
// a generator seeded by the key so colors are stable across re-fetches
// of the same detection set.
func AssignColors(segments []models.DetectionResult) map[ColorKey]string {
	colors := make(map[ColorKey]string)
	for _, seg := range segments {
		key := ColorKey{AdID: seg.AdID, ClipType: seg.ClipType}
		if _, ok := colors[key]; ok {
			continue
		}
		colors[key] = colorFor(key)
	}
	return colors
}

func colorFor(key ColorKey) string {
	switch key.ClipType {
	case models.ClipEmpty:
		return colorEmpty
	case models.ClipSpeech:
		return colorSpeech
	}

	r := waveform.NewSeededRand(waveform.HashSeed(fmt.Sprintf("%d:%s", key.AdID, key.ClipType)))
	var hue float64
	if key.ClipType == models.ClipSong {
		hue = 95 + r.Float64()*55 // greens
	} else {
		hue = 18 + r.Float64()*27 // oranges
	}
	return fmt.Sprintf("hsl(%d, 72%%, 52%%)", int(hue))
}
