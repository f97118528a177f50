package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/playhead"
)

type stubLoader struct {
	mu   sync.Mutex
	byID map[int64][]models.DetectionResult
	gate map[int64]chan struct{}
}

func (l *stubLoader) ListByBroadcast(ctx context.Context, broadcastID int64) ([]models.DetectionResult, error) {
	l.mu.Lock()
	gate := l.gate[broadcastID]
	l.mu.Unlock()
	if gate != nil {
		<-gate
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byID[broadcastID], nil
}

type stubSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubSubmitter) Submit(ctx context.Context, broadcastID int64, req models.DesignationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) Send(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func broadcast(id int64, duration int) models.Broadcast {
	return models.Broadcast{ID: id, Filename: "rec.mp3", DurationSeconds: duration, Status: models.BroadcastProcessed}
}

func adDetection(broadcastID int64, start, end float64) models.DetectionResult {
	return models.DetectionResult{
		AdID:             3,
		BroadcastID:      broadcastID,
		ClipType:         models.ClipAd,
		StartTimeSeconds: start,
		EndTimeSeconds:   end,
	}
}

func newTestManager(loader *stubLoader, sub *stubSubmitter) (*Manager, *eventRecorder) {
	rec := &eventRecorder{}
	return NewManager(loader, sub, rec), rec
}

func TestOpenLoadsNormalizedTimeline(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{byID: map[int64][]models.DetectionResult{
		1: {adDetection(1, 100, 130)},
	}}
	mgr, rec := newTestManager(loader, &stubSubmitter{})

	mgr.Open(context.Background(), broadcast(1, 600))

	snap := mgr.Snapshot()
	require.NotNil(t, snap)
	assert.True(t, snap.Playing, "opening a source auto-starts playback")
	require.Len(t, snap.Segments, 3, "detections are normalized with gap fill")
	assert.Equal(t, models.ClipEmpty, snap.Segments[0].ClipType)
	assert.Equal(t, models.ClipAd, snap.Segments[1].ClipType)
	assert.True(t, rec.has("player:state"))
}

func TestCloseReleasesSource(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{byID: map[int64][]models.DetectionResult{}}
	mgr, rec := newTestManager(loader, &stubSubmitter{})

	mgr.Open(context.Background(), broadcast(1, 600))
	mgr.Close()

	assert.Nil(t, mgr.Snapshot())
	assert.True(t, rec.has("player:closed"))
}

// Progress ticks from a broadcast that is no longer the bound source
// must not move the playhead.
func TestControlsTickIgnoresUnboundSource(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{byID: map[int64][]models.DetectionResult{}}
	mgr, _ := newTestManager(loader, &stubSubmitter{})

	mgr.Open(context.Background(), broadcast(2, 600))
	mgr.ControlsTick(2, 42)
	mgr.ControlsTick(1, 99)

	snap := mgr.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 42.0, snap.Playhead.Time)
	assert.Equal(t, playhead.SourceControls, snap.Playhead.Source)
}

func TestSeekFromWaveformIgnoresUnboundSource(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{byID: map[int64][]models.DetectionResult{}}
	mgr, _ := newTestManager(loader, &stubSubmitter{})

	mgr.Open(context.Background(), broadcast(2, 600))
	mgr.SeekFromWaveform(1, 300, 600)

	assert.Equal(t, 0.0, mgr.Snapshot().Playhead.Time)
}

// A detection fetch that returns after the operator has switched
// broadcasts must not overwrite the new broadcast's timeline.
func TestStaleDetectionFetchDiscarded(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	loader := &stubLoader{
		byID: map[int64][]models.DetectionResult{
			1: {adDetection(1, 100, 130)},
			2: {adDetection(2, 200, 230)},
		},
		gate: map[int64]chan struct{}{1: gate},
	}
	mgr, _ := newTestManager(loader, &stubSubmitter{})

	done := make(chan struct{})
	go func() {
		mgr.Open(context.Background(), broadcast(1, 600))
		close(done)
	}()

	// Let the first open reach its blocked fetch, then switch sources.
	time.Sleep(10 * time.Millisecond)
	mgr.Open(context.Background(), broadcast(2, 600))

	close(gate)
	<-done

	require.Eventually(t, func() bool {
		snap := mgr.Snapshot()
		return snap != nil && len(snap.Segments) == 3
	}, time.Second, time.Millisecond)

	snap := mgr.Snapshot()
	assert.Equal(t, int64(2), snap.Broadcast.ID)
	for _, seg := range snap.Segments {
		assert.Equal(t, int64(2), seg.BroadcastID, "stale segments from broadcast 1 must not appear")
	}
}

func TestOpenGapBoundsPreview(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{byID: map[int64][]models.DetectionResult{
		1: {adDetection(1, 100, 130)},
	}}
	mgr, _ := newTestManager(loader, &stubSubmitter{})
	mgr.Open(context.Background(), broadcast(1, 600))

	// Segment 1 is the detection; 0 and 2 are the synthesized gaps.
	require.Error(t, mgr.OpenGap(1), "detections cannot be designated")
	require.NoError(t, mgr.OpenGap(2))

	snap := mgr.Snapshot()
	assert.Equal(t, "editing", string(snap.Workflow.Phase))
	assert.Equal(t, 131.0, snap.Playhead.Time, "playhead snaps into the preview window")
}

func TestSubmitDesignationClearsPreview(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{byID: map[int64][]models.DetectionResult{
		1: {adDetection(1, 100, 130)},
	}}
	sub := &stubSubmitter{}
	mgr, _ := newTestManager(loader, sub)
	mgr.Open(context.Background(), broadcast(1, 600))

	require.NoError(t, mgr.OpenGap(0))
	require.NoError(t, mgr.SetFields(models.ClipSpeech, "", ""))
	require.NoError(t, mgr.SubmitDesignation(context.Background()))

	require.Eventually(t, func() bool {
		snap := mgr.Snapshot()
		return snap != nil && snap.Workflow.Phase == "idle"
	}, time.Second, time.Millisecond)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	assert.Equal(t, 1, sub.calls)
}

func TestFrameRendersColoredOverlays(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{byID: map[int64][]models.DetectionResult{
		1: {adDetection(1, 100, 130)},
	}}
	mgr, _ := newTestManager(loader, &stubSubmitter{})
	mgr.Open(context.Background(), broadcast(1, 600))

	frame := mgr.Frame(800, 2)

	require.NotEmpty(t, frame.Bars)
	require.Len(t, frame.Overlays, 3)
	for _, ov := range frame.Overlays {
		assert.NotEmpty(t, ov.Color)
	}
}

func TestFrameWithoutSourceIsEmpty(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{byID: map[int64][]models.DetectionResult{}}
	mgr, _ := newTestManager(loader, &stubSubmitter{})

	frame := mgr.Frame(800, 2)
	assert.Empty(t, frame.Bars)
	assert.Empty(t, frame.Overlays)
}
