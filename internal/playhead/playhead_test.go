package playhead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A controls-originated write must never ask the controls side to seek
// itself; that echo is what causes playback stutter.
func TestWriteFromControlsNoEcho(t *testing.T) {
	t.Parallel()

	s := NewSynchronizer()
	upd := s.WriteFromControls(12.5)

	assert.Equal(t, 12.5, upd.State.Time)
	assert.Equal(t, SourceControls, upd.State.Source)
	assert.False(t, upd.SeekAudio)
	assert.False(t, upd.PausePlayback)
}

func TestWriteFromWaveformSeeksAudio(t *testing.T) {
	t.Parallel()

	s := NewSynchronizer()
	upd := s.WriteFromWaveform(340.0)

	assert.Equal(t, 340.0, upd.State.Time)
	assert.Equal(t, SourceWaveform, upd.State.Source)
	assert.True(t, upd.SeekAudio)
}

func TestPreviewOverflowLoopsToStart(t *testing.T) {
	t.Parallel()

	s := NewSynchronizer()
	s.SetPreview(100, 130)

	upd := s.WriteFromControls(125)
	assert.False(t, upd.PausePlayback)

	upd = s.WriteFromControls(130.4)
	assert.True(t, upd.PausePlayback)
	assert.True(t, upd.SeekAudio)
	assert.Equal(t, 100.0, upd.State.Time)
}

func TestSetPreviewClampsPlayhead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		playhead float64
		wantTime float64
		wantSeek bool
	}{
		{"behind start snaps to start", 40, 100, true},
		{"past end snaps to end", 200, 130, true},
		{"inside stays put", 110, 110, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSynchronizer()
			s.WriteFromControls(tt.playhead)
			upd := s.SetPreview(100, 130)

			assert.Equal(t, tt.wantTime, upd.State.Time)
			assert.Equal(t, tt.wantSeek, upd.SeekAudio)
		})
	}
}

func TestClearPreviewStopsLooping(t *testing.T) {
	t.Parallel()

	s := NewSynchronizer()
	s.SetPreview(100, 130)
	s.ClearPreview()
	require.Nil(t, s.Preview())

	upd := s.WriteFromControls(500)
	assert.False(t, upd.PausePlayback)
	assert.Equal(t, 500.0, upd.State.Time)
}

func TestReset(t *testing.T) {
	t.Parallel()

	s := NewSynchronizer()
	s.WriteFromWaveform(50)
	s.SetPreview(10, 20)
	s.Reset()

	assert.Equal(t, State{}, s.State())
	assert.Nil(t, s.Preview())
}
