package playhead

// A playhead is shared between an audio player and the waveform(s) bound
// to the same broadcast. Both sides write the authoritative current time;
// the source tag records which side wrote last so the originating side
// never re-applies its own value (timestamp comparison is not reliable
// for sub-frame event ordering, the tag is).

// Source identifies which half of the bidirectional binding produced a
// playhead value.
type Source string

const (
	SourceControls Source = "controls"
	SourceWaveform Source = "waveform"
)

// State is the shared playhead value plus its originator.
type State struct {
	Time   float64 `json:"time"`
	Source Source  `json:"source"`
}

// Update describes what the consumers must do after a write.
type Update struct {
	State State `json:"state"`
	// SeekAudio is set when the audio element must be forcibly
	// repositioned; it is never set for a write that originated from
	// the controls side itself.
	SeekAudio bool `json:"seek_audio"`
	// PausePlayback is set when a bounded preview ran past its end and
	// playback must stop before re-seeking to the preview start.
	PausePlayback bool `json:"pause_playback"`
}

// PreviewWindow bounds playback for the clip-designation preview player:
// playback past End pauses and resets to Start.
type PreviewWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Synchronizer owns one playhead binding.
type Synchronizer struct {
	state   State
	preview *PreviewWindow
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// State returns the current playhead value.
func (s *Synchronizer) State() State {
	return s.state
}

// WriteFromControls records a native timeupdate from the audio element.
// With an active preview window, running past the end loops playback
// back to the window start.
func (s *Synchronizer) WriteFromControls(t float64) Update {
	if s.preview != nil && t > s.preview.End {
		s.state = State{Time: s.preview.Start, Source: SourceControls}
		return Update{State: s.state, SeekAudio: true, PausePlayback: true}
	}
	s.state = State{Time: t, Source: SourceControls}
	return Update{State: s.state}
}

// WriteFromWaveform records a click-to-seek from the waveform. The audio
// element is the non-originating consumer, so it must apply the seek.
func (s *Synchronizer) WriteFromWaveform(t float64) Update {
	s.state = State{Time: t, Source: SourceWaveform}
	return Update{State: s.state, SeekAudio: true}
}

// SetPreview activates a bounded preview range and clamps the playhead
// into it, mirroring the dual-handle range control: a playhead left
// behind the new start snaps to the start, one past the new end snaps to
// the end.
func (s *Synchronizer) SetPreview(start, end float64) Update {
	s.preview = &PreviewWindow{Start: start, End: end}
	switch {
	case s.state.Time < start:
		s.state = State{Time: start, Source: SourceWaveform}
		return Update{State: s.state, SeekAudio: true}
	case s.state.Time > end:
		s.state = State{Time: end, Source: SourceWaveform}
		return Update{State: s.state, SeekAudio: true}
	}
	return Update{State: s.state}
}

// ClearPreview deactivates the bounded preview range.
func (s *Synchronizer) ClearPreview() {
	s.preview = nil
}

// Preview returns the active preview window, or nil.
func (s *Synchronizer) Preview() *PreviewWindow {
	return s.preview
}

// Reset discards the playhead, for when the bound audio source is
// switched or released.
func (s *Synchronizer) Reset() {
	s.state = State{}
	s.preview = nil
}
