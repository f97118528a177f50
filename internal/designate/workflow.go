// Package designate implements the gap-to-clip designation workflow: an
// operator picks an empty segment on the waveform, narrows it to a
// sub-range, classifies it, and submits it for extraction as a new
// master clip.
package designate

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/audioai/aircheck/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Phase is the workflow's current state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
)

var (
	ErrNoSelection     = errors.New("no empty segment selected")
	ErrNotEmptySegment = errors.New("only empty segments can be designated")
	ErrOutOfBounds     = errors.New("time range outside the selected segment")
	ErrRangeInverted   = errors.New("start time must not exceed end time")
	ErrMissingFields   = errors.New("brand/artist and name are required for ad and song clips")
	ErrBusy            = errors.New("a designation submission is already in flight")
)

// Submitter persists a designation request against a broadcast. The API
// layer implements it with a repository insert plus an extraction job
// enqueue.
type Submitter interface {
	Submit(ctx context.Context, broadcastID int64, req models.DesignationRequest) error
}

// RefreshFunc signals the host view that detections changed and must be
// refetched; the new detection is never synthesized client-side.
type RefreshFunc func(broadcastID int64)

// Snapshot is the workflow state pushed to the console after each
// transition.
type Snapshot struct {
	Phase       Phase                     `json:"phase"`
	BroadcastID int64                     `json:"broadcast_id,omitempty"`
	Segment     *models.DetectionResult   `json:"segment,omitempty"`
	Request     *models.DesignationRequest `json:"request,omitempty"`
	LastError   string                    `json:"last_error,omitempty"`
}

// Workflow is the designation state machine: Idle → Editing →
// Submitting → Idle. A failed submission returns to Editing with the
// entered fields intact so the operator can retry.
type Workflow struct {
	mu        sync.Mutex
	phase     Phase
	broadcast int64
	segment   models.DetectionResult
	req       models.DesignationRequest
	lastError string
	submitter Submitter
	onRefresh RefreshFunc
}

func New(submitter Submitter, onRefresh RefreshFunc) *Workflow {
	return &Workflow{phase: PhaseIdle, submitter: submitter, onRefresh: onRefresh}
}

// Open starts editing a designation for an empty segment, initializing
// the range to the segment's full bounds and the type to ad.
func (w *Workflow) Open(broadcastID int64, segment models.DetectionResult) error {
	if segment.ClipType != models.ClipEmpty {
		return ErrNotEmptySegment
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase == PhaseSubmitting {
		return ErrBusy
	}

	w.phase = PhaseEditing
	w.broadcast = broadcastID
	w.segment = segment
	w.lastError = ""
	w.req = models.DesignationRequest{
		StartTime: segment.StartTimeSeconds,
		EndTime:   segment.EndTimeSeconds,
		ClipType:  models.ClipAd,
	}
	return nil
}

// AdjustRange moves the selected sub-range. The range control never lets
// the handles cross or leave the segment, and the server enforces the
// same bounds.
func (w *Workflow) AdjustRange(start, end float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseEditing {
		return ErrNoSelection
	}
	if start > end {
		return ErrRangeInverted
	}
	if start < w.segment.StartTimeSeconds || end > w.segment.EndTimeSeconds {
		return ErrOutOfBounds
	}
	w.req.StartTime = start
	w.req.EndTime = end
	return nil
}

// SetFields updates the classification fields being edited.
func (w *Workflow) SetFields(clipType models.ClipType, brandArtist, advertisementName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseEditing {
		return ErrNoSelection
	}
	if !clipType.Valid() {
		return models.ErrInvalidClipType
	}
	w.req.ClipType = clipType
	w.req.BrandArtist = brandArtist
	w.req.AdvertisementName = advertisementName
	return nil
}

// Submit validates the edited designation and hands it to the submitter.
// Exactly one submission may be in flight; editing state survives a
// failure.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.phase == PhaseSubmitting {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.phase != PhaseEditing {
		w.mu.Unlock()
		return ErrNoSelection
	}

	req := w.req
	broadcastID := w.broadcast
	if err := Validate(req); err != nil {
		w.lastError = err.Error()
		w.mu.Unlock()
		return err
	}

	w.phase = PhaseSubmitting
	w.mu.Unlock()

	err := w.submitter.Submit(ctx, broadcastID, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		// Stay in Editing so the operator can retry without re-entering
		// the form.
		w.phase = PhaseEditing
		w.lastError = err.Error()
		return err
	}

	w.phase = PhaseIdle
	w.segment = models.DetectionResult{}
	w.req = models.DesignationRequest{}
	w.lastError = ""
	if w.onRefresh != nil {
		w.onRefresh(broadcastID)
	}
	return nil
}

// Cancel drops the current selection without submitting.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase == PhaseSubmitting {
		return
	}
	w.phase = PhaseIdle
	w.segment = models.DetectionResult{}
	w.req = models.DesignationRequest{}
	w.lastError = ""
}

// Snapshot returns the current workflow state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := Snapshot{Phase: w.phase, LastError: w.lastError}
	if w.phase != PhaseIdle {
		snap.BroadcastID = w.broadcast
		seg := w.segment
		req := w.req
		snap.Segment = &seg
		snap.Request = &req
	}
	return snap
}

// Validate applies the client-side designation rules before any network
// or database work: clip type must be designatable, the range must be
// ordered, and ad/song designations need both text fields. Speech needs
// neither.
func Validate(req models.DesignationRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if req.ClipType != models.ClipSpeech {
		if req.BrandArtist == "" || req.AdvertisementName == "" {
			return ErrMissingFields
		}
	}
	return nil
}
