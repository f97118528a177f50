// Package player owns the console's playback context: which broadcast is
// bound to the audio player, its viewport, its playhead, and the
// designation workflow for its empty segments. One Manager exists per
// operator connection; it replaces the informal "currently playing id"
// state the views used to share.
package player

import (
	"context"
	"log"
	"sync"

	"github.com/audioai/aircheck/internal/designate"
	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/playhead"
	"github.com/audioai/aircheck/internal/timeline"
	"github.com/audioai/aircheck/internal/waveform"
)

// DetectionLoader fetches raw detections for a broadcast.
type DetectionLoader interface {
	ListByBroadcast(ctx context.Context, broadcastID int64) ([]models.DetectionResult, error)
}

// Events receives state pushes for the connected console.
type Events interface {
	Send(event string, data interface{})
}

// Session is the state bound to the single active playback source.
type Session struct {
	Broadcast models.Broadcast         `json:"broadcast"`
	Viewport  waveform.Viewport        `json:"viewport"`
	Playhead  playhead.State           `json:"playhead"`
	Playing   bool                     `json:"playing"`
	Segments  []models.DetectionResult `json:"segments"`
	Workflow  designate.Snapshot       `json:"workflow"`
}

// Manager serializes all playback commands for one operator connection.
// At most one broadcast is the bound source at a time; opening a new one
// implicitly releases the old one.
type Manager struct {
	mu     sync.Mutex
	loader DetectionLoader
	events Events

	broadcast *models.Broadcast
	viewport  waveform.Viewport
	sync      *playhead.Synchronizer
	workflow  *designate.Workflow
	segments  []models.DetectionResult
	playing   bool
}

func NewManager(loader DetectionLoader, submitter designate.Submitter, events Events) *Manager {
	m := &Manager{
		loader: loader,
		events: events,
		sync:   playhead.NewSynchronizer(),
	}
	m.workflow = designate.New(submitter, func(broadcastID int64) {
		// Successful designation: the new detection is only visible
		// after a refetch.
		go m.reloadDetections(context.Background(), broadcastID)
	})
	return m
}

// Open binds a broadcast as the active playback source: the previous
// source is stopped and discarded, the playhead resets to zero, and the
// new source auto-starts.
func (m *Manager) Open(ctx context.Context, b models.Broadcast) {
	m.mu.Lock()
	m.broadcast = &b
	m.viewport = waveform.NewViewport(float64(b.DurationSeconds))
	m.sync.Reset()
	m.workflow.Cancel()
	m.segments = nil
	m.playing = true
	m.mu.Unlock()

	m.push()
	m.reloadDetections(ctx, b.ID)
}

// Close fully releases the active source: no further progress events
// apply, and the console is told nothing is playing.
func (m *Manager) Close() {
	m.mu.Lock()
	m.broadcast = nil
	m.sync.Reset()
	m.workflow.Cancel()
	m.segments = nil
	m.playing = false
	m.mu.Unlock()

	m.events.Send("player:closed", nil)
}

// ControlsTick applies a progress update from the audio element. Ticks
// for a broadcast that is no longer the bound source are dropped.
func (m *Manager) ControlsTick(broadcastID int64, t float64) {
	m.mu.Lock()
	if m.broadcast == nil || m.broadcast.ID != broadcastID {
		m.mu.Unlock()
		return
	}
	upd := m.sync.WriteFromControls(t)
	if upd.PausePlayback {
		m.playing = false
	}
	m.mu.Unlock()

	m.events.Send("playhead:update", upd)
}

// SeekFromWaveform applies a click-to-seek. A waveform rendered for a
// broadcast other than the bound source must not move the playhead.
func (m *Manager) SeekFromWaveform(broadcastID int64, clickX, widthPx float64) {
	m.mu.Lock()
	if m.broadcast == nil || m.broadcast.ID != broadcastID {
		m.mu.Unlock()
		return
	}
	upd := m.sync.WriteFromWaveform(m.viewport.TimeAt(clickX, widthPx))
	m.mu.Unlock()

	m.events.Send("playhead:update", upd)
}

// SetPlaying toggles play/pause for the bound source.
func (m *Manager) SetPlaying(playing bool) {
	m.mu.Lock()
	if m.broadcast == nil {
		m.mu.Unlock()
		return
	}
	m.playing = playing
	m.mu.Unlock()
	m.push()
}

// Zoom shrinks or grows the viewport around the pointer.
func (m *Manager) Zoom(pointerFraction float64, direction int) {
	m.mu.Lock()
	if m.broadcast == nil {
		m.mu.Unlock()
		return
	}
	m.viewport.ZoomAt(pointerFraction, direction)
	m.mu.Unlock()
	m.push()
}

// Pan moves the viewport start, from the range slider.
func (m *Manager) Pan(start float64) {
	m.mu.Lock()
	if m.broadcast == nil {
		m.mu.Unlock()
		return
	}
	m.viewport.PanTo(start)
	m.mu.Unlock()
	m.push()
}

// OpenGap starts the designation workflow for the empty segment at the
// given index and bounds the preview player to it.
func (m *Manager) OpenGap(segmentIndex int) error {
	m.mu.Lock()
	if m.broadcast == nil || segmentIndex < 0 || segmentIndex >= len(m.segments) {
		m.mu.Unlock()
		return designate.ErrNoSelection
	}
	seg := m.segments[segmentIndex]
	broadcastID := m.broadcast.ID
	m.mu.Unlock()

	if err := m.workflow.Open(broadcastID, seg); err != nil {
		return err
	}

	m.mu.Lock()
	upd := m.sync.SetPreview(seg.StartTimeSeconds, seg.EndTimeSeconds)
	m.mu.Unlock()
	m.events.Send("playhead:update", upd)
	m.push()
	return nil
}

// AdjustRange narrows the designation sub-range and re-bounds the
// preview window to it.
func (m *Manager) AdjustRange(start, end float64) error {
	if err := m.workflow.AdjustRange(start, end); err != nil {
		return err
	}
	m.mu.Lock()
	upd := m.sync.SetPreview(start, end)
	m.mu.Unlock()
	m.events.Send("playhead:update", upd)
	m.push()
	return nil
}

// SetFields updates the designation classification fields.
func (m *Manager) SetFields(clipType models.ClipType, brandArtist, advertisementName string) error {
	if err := m.workflow.SetFields(clipType, brandArtist, advertisementName); err != nil {
		return err
	}
	m.push()
	return nil
}

// SubmitDesignation submits the edited designation. On success the
// preview window is released and the detections are refetched via the
// workflow's refresh hook.
func (m *Manager) SubmitDesignation(ctx context.Context) error {
	err := m.workflow.Submit(ctx)
	if err == nil {
		m.mu.Lock()
		m.sync.ClearPreview()
		m.mu.Unlock()
	}
	m.push()
	return err
}

// CancelDesignation drops the current gap selection.
func (m *Manager) CancelDesignation() {
	m.workflow.Cancel()
	m.mu.Lock()
	m.sync.ClearPreview()
	m.mu.Unlock()
	m.push()
}

// Frame renders the waveform for the current viewport.
func (m *Manager) Frame(widthPx, barWidthPx int) waveform.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broadcast == nil {
		return waveform.Frame{}
	}
	amps := waveform.Amplitudes(m.broadcast.Filename, amplitudeCount(m.broadcast.DurationSeconds))
	frame := waveform.Render(amps, m.viewport, m.segments, widthPx, barWidthPx)
	colors := timeline.AssignColors(m.segments)
	for i := range frame.Overlays {
		ov := &frame.Overlays[i]
		ov.Color = colors[timeline.ColorKey{AdID: ov.AdID, ClipType: ov.ClipType}]
	}
	return frame
}

// Snapshot returns the full session state, or nil when nothing is bound.
func (m *Manager) Snapshot() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broadcast == nil {
		return nil
	}
	return &Session{
		Broadcast: *m.broadcast,
		Viewport:  m.viewport,
		Playhead:  m.sync.State(),
		Playing:   m.playing,
		Segments:  m.segments,
		Workflow:  m.workflow.Snapshot(),
	}
}

// reloadDetections fetches and normalizes detections for broadcastID,
// then applies them only if that broadcast is still the bound source.
// A superseded response arriving late must not overwrite state for a
// newly selected broadcast.
func (m *Manager) reloadDetections(ctx context.Context, broadcastID int64) {
	raw, err := m.loader.ListByBroadcast(ctx, broadcastID)
	if err != nil {
		log.Printf("[player] detection fetch for broadcast %d failed: %v", broadcastID, err)
		m.events.Send("detections:error", map[string]interface{}{"broadcast_id": broadcastID})
		return
	}

	m.mu.Lock()
	if m.broadcast == nil || m.broadcast.ID != broadcastID {
		m.mu.Unlock()
		return
	}
	m.segments = timeline.Normalize(raw, m.broadcast.DurationSeconds)
	m.mu.Unlock()
	m.push()
}

func (m *Manager) push() {
	if snap := m.Snapshot(); snap != nil {
		m.events.Send("player:state", snap)
	}
}

// amplitudeCount sizes the synthetic series at roughly one point per
// second, floored to keep short clips renderable.
func amplitudeCount(durationSeconds int) int {
	if durationSeconds < 500 {
		return 500
	}
	return durationSeconds
}
