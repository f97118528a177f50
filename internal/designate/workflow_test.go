package designate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioai/aircheck/internal/models"
)

type stubSubmitter struct {
	mu    sync.Mutex
	calls []models.DesignationRequest
	err   error
	block chan struct{}
}

func (s *stubSubmitter) Submit(ctx context.Context, broadcastID int64, req models.DesignationRequest) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	return s.err
}

func (s *stubSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func emptySeg(start, end float64) models.DetectionResult {
	return models.DetectionResult{
		AdID:             models.EmptyAdID,
		ClipType:         models.ClipEmpty,
		StartTimeSeconds: start,
		EndTimeSeconds:   end,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     models.DesignationRequest
		wantErr bool
	}{
		{
			name:    "ad with both fields",
			req:     models.DesignationRequest{BrandArtist: "Acme", AdvertisementName: "Sale", StartTime: 10, EndTime: 20, ClipType: models.ClipAd},
			wantErr: false,
		},
		{
			name:    "song with both fields",
			req:     models.DesignationRequest{BrandArtist: "Artist", AdvertisementName: "Track", StartTime: 10, EndTime: 20, ClipType: models.ClipSong},
			wantErr: false,
		},
		{
			name:    "speech needs no fields",
			req:     models.DesignationRequest{StartTime: 10, EndTime: 20, ClipType: models.ClipSpeech},
			wantErr: false,
		},
		{
			name:    "ad missing advertisement name",
			req:     models.DesignationRequest{BrandArtist: "Acme", StartTime: 10, EndTime: 20, ClipType: models.ClipAd},
			wantErr: true,
		},
		{
			name:    "song missing artist",
			req:     models.DesignationRequest{AdvertisementName: "Track", StartTime: 10, EndTime: 20, ClipType: models.ClipSong},
			wantErr: true,
		},
		{
			name:    "inverted range",
			req:     models.DesignationRequest{BrandArtist: "A", AdvertisementName: "B", StartTime: 20, EndTime: 10, ClipType: models.ClipAd},
			wantErr: true,
		},
		{
			name:    "negative start",
			req:     models.DesignationRequest{BrandArtist: "A", AdvertisementName: "B", StartTime: -1, EndTime: 10, ClipType: models.ClipAd},
			wantErr: true,
		},
		{
			name:    "empty is not designatable",
			req:     models.DesignationRequest{StartTime: 10, EndTime: 20, ClipType: models.ClipEmpty},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpenRejectsNonEmptySegments(t *testing.T) {
	t.Parallel()

	w := New(&stubSubmitter{}, nil)
	seg := emptySeg(100, 160)
	seg.ClipType = models.ClipAd

	assert.ErrorIs(t, w.Open(1, seg), ErrNotEmptySegment)
	assert.Equal(t, PhaseIdle, w.Snapshot().Phase)
}

func TestOpenInitializesRangeToSegmentBounds(t *testing.T) {
	t.Parallel()

	w := New(&stubSubmitter{}, nil)
	require.NoError(t, w.Open(1, emptySeg(100, 160)))

	snap := w.Snapshot()
	assert.Equal(t, PhaseEditing, snap.Phase)
	require.NotNil(t, snap.Request)
	assert.Equal(t, 100.0, snap.Request.StartTime)
	assert.Equal(t, 160.0, snap.Request.EndTime)
	assert.Equal(t, models.ClipAd, snap.Request.ClipType)
}

func TestAdjustRange(t *testing.T) {
	t.Parallel()

	w := New(&stubSubmitter{}, nil)
	require.NoError(t, w.Open(1, emptySeg(100, 160)))

	assert.NoError(t, w.AdjustRange(110, 140))
	assert.ErrorIs(t, w.AdjustRange(140, 110), ErrRangeInverted)
	assert.ErrorIs(t, w.AdjustRange(90, 140), ErrOutOfBounds)
	assert.ErrorIs(t, w.AdjustRange(110, 170), ErrOutOfBounds)

	snap := w.Snapshot()
	assert.Equal(t, 110.0, snap.Request.StartTime)
	assert.Equal(t, 140.0, snap.Request.EndTime)
}

func TestAdjustRangeRequiresSelection(t *testing.T) {
	t.Parallel()

	w := New(&stubSubmitter{}, nil)
	assert.ErrorIs(t, w.AdjustRange(10, 20), ErrNoSelection)
}

func TestSubmitSuccessReturnsToIdleAndRefreshes(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{}
	refreshed := make(chan int64, 1)
	w := New(sub, func(id int64) { refreshed <- id })

	require.NoError(t, w.Open(7, emptySeg(100, 160)))
	require.NoError(t, w.SetFields(models.ClipAd, "Acme", "Spring Sale"))
	require.NoError(t, w.Submit(context.Background()))

	assert.Equal(t, PhaseIdle, w.Snapshot().Phase)
	assert.Equal(t, 1, sub.callCount())
	select {
	case id := <-refreshed:
		assert.Equal(t, int64(7), id)
	default:
		t.Fatal("refresh hook was not called")
	}
}

func TestSubmitFailureStaysEditing(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{err: errors.New("backend down")}
	w := New(sub, nil)

	require.NoError(t, w.Open(1, emptySeg(100, 160)))
	require.NoError(t, w.SetFields(models.ClipAd, "Acme", "Spring Sale"))
	require.Error(t, w.Submit(context.Background()))

	snap := w.Snapshot()
	assert.Equal(t, PhaseEditing, snap.Phase)
	assert.Equal(t, "backend down", snap.LastError)
	assert.Equal(t, "Acme", snap.Request.BrandArtist, "entered fields survive a failed submit")
}

func TestSubmitValidationFailureStaysEditing(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{}
	w := New(sub, nil)

	require.NoError(t, w.Open(1, emptySeg(100, 160)))
	// ClipAd without text fields
	require.Error(t, w.Submit(context.Background()))

	assert.Equal(t, PhaseEditing, w.Snapshot().Phase)
	assert.Equal(t, 0, sub.callCount(), "invalid requests never reach the submitter")
}

func TestSubmitInFlightGuard(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{block: make(chan struct{})}
	w := New(sub, nil)

	require.NoError(t, w.Open(1, emptySeg(100, 160)))
	require.NoError(t, w.SetFields(models.ClipSpeech, "", ""))

	done := make(chan error, 1)
	go func() { done <- w.Submit(context.Background()) }()

	// Wait for the first submission to reach the submitter.
	require.Eventually(t, func() bool {
		return w.Snapshot().Phase == PhaseSubmitting
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, w.Submit(context.Background()), ErrBusy)

	close(sub.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sub.callCount())
}

func TestCancel(t *testing.T) {
	t.Parallel()

	w := New(&stubSubmitter{}, nil)
	require.NoError(t, w.Open(1, emptySeg(100, 160)))
	w.Cancel()

	snap := w.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Nil(t, snap.Request)
}
