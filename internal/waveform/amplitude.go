package waveform

// The console renders a synthetic waveform rather than decoding audio:
// amplitudes are a deterministic pseudo-random series keyed on the
// broadcast's filename. The series is regenerated on every render and
// zoom without caching, so identical inputs must produce bit-identical
// output.

// HashSeed derives a 32-bit seed from a string key using a polynomial
// string hash (hash = char + hash*31 - hash, wrapped to uint32).
func HashSeed(key string) uint32 {
	var hash uint32
	for _, ch := range key {
		hash = uint32(ch) + hash*31 - hash
	}
	return hash
}

// SeededRand is a small mulberry32-style mix-and-permute generator.
// It is a visual stand-in, not statistically or cryptographically
// meaningful.
type SeededRand struct {
	state uint32
}

func NewSeededRand(seed uint32) *SeededRand {
	return &SeededRand{state: seed}
}

// Float64 returns the next draw in [0, 1).
func (r *SeededRand) Float64() float64 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}

// Amplitudes generates count normalized amplitude values in [0.1, 1.0]
// from the given seed key. Two calls with the same (seedKey, count)
// return identical series.
func Amplitudes(seedKey string, count int) []float64 {
	r := NewSeededRand(HashSeed(seedKey))
	amps := make([]float64, count)
	for i := range amps {
		amps[i] = r.Float64()*0.9 + 0.1
	}
	return amps
}
