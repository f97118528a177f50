package detection

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/audioai/aircheck/internal/ffmpeg"
)

// envelopeRate is the amplitude-envelope resolution in points per second.
// Coarse enough to keep correlation cheap over hour-long recordings.
const envelopeRate = 10

// Correlator is the reference Engine: it decodes audio through ffmpeg,
// reduces it to an amplitude envelope, and slides each master's envelope
// across the broadcast looking for normalized cross-correlation peaks.
type Correlator struct {
	ffmpegPath string
	threshold  float64
}

func NewCorrelator(ffmpegPath string, threshold float64) *Correlator {
	return &Correlator{ffmpegPath: ffmpegPath, threshold: threshold}
}

func (c *Correlator) Analyze(ctx context.Context, broadcastPath string, masters []Master) ([]Match, error) {
	samples, err := ffmpeg.DecodeSamples(c.ffmpegPath, broadcastPath, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("decode broadcast: %w", err)
	}
	broadcast := Envelope(samples, envelopeRate)
	if len(broadcast) == 0 {
		return nil, fmt.Errorf("broadcast %s decoded to empty audio", broadcastPath)
	}

	var matches []Match
	for _, m := range masters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msamples, err := ffmpeg.DecodeSamples(c.ffmpegPath, m.FilePath, 0, 0)
		if err != nil {
			log.Printf("[detection] skipping master %d: %v", m.ID, err)
			continue
		}
		ref := Envelope(msamples, envelopeRate)
		if len(ref) < envelopeRate {
			continue
		}
		matches = append(matches, c.scan(broadcast, ref, m)...)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StartTimeSeconds < matches[j].StartTimeSeconds
	})
	return dedupeOverlaps(matches), nil
}

// scan slides the reference envelope across the broadcast envelope in
// one-second steps and records every local correlation peak above threshold.
func (c *Correlator) scan(broadcast, ref []float64, m Master) []Match {
	if len(ref) > len(broadcast) {
		return nil
	}
	refDur := float64(len(ref)) / envelopeRate

	var out []Match
	lastEnd := -1.0
	for offset := 0; offset+len(ref) <= len(broadcast); offset += envelopeRate {
		score := NormalizedCorrelation(broadcast[offset:offset+len(ref)], ref)
		if score < c.threshold {
			continue
		}
		start := float64(offset) / envelopeRate
		if start < lastEnd {
			continue
		}
		out = append(out, Match{
			MasterID:         m.ID,
			ClipType:         m.ClipType,
			StartTimeSeconds: start,
			EndTimeSeconds:   start + refDur,
			CorrelationScore: score,
			RawCorrelation:   score,
			MFCCCorrelation:  0,
			OverlapDuration:  refDur,
		})
		lastEnd = start + refDur
	}
	return out
}

// Envelope reduces raw samples to mean absolute amplitude per window,
// yielding rate points per second of source audio.
func Envelope(samples []float64, rate int) []float64 {
	window := ffmpeg.DecodeRate / rate
	if window <= 0 || len(samples) < window {
		return nil
	}
	env := make([]float64, len(samples)/window)
	for i := range env {
		sum := 0.0
		for _, v := range samples[i*window : (i+1)*window] {
			sum += math.Abs(v)
		}
		env[i] = sum / float64(window)
	}
	return env
}

// NormalizedCorrelation returns the Pearson correlation of two equal-length
// envelopes, clamped to 0 when either side is silent.
func NormalizedCorrelation(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	r := cov / math.Sqrt(varA*varB)
	if r < 0 {
		return 0
	}
	return r
}

// dedupeOverlaps keeps the higher-scoring match when two matches from
// different masters claim overlapping time.
func dedupeOverlaps(matches []Match) []Match {
	var out []Match
	for _, m := range matches {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if m.StartTimeSeconds < last.EndTimeSeconds {
				if m.CorrelationScore > last.CorrelationScore {
					*last = m
				}
				continue
			}
		}
		out = append(out, m)
	}
	return out
}
