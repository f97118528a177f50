package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/audioai/aircheck/internal/config"
	"github.com/audioai/aircheck/internal/ffmpeg"
	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/repository"
)

// ──────── Extract Clip Handler ────────

// ExtractHandler turns a stored designation into a master clip: it cuts the
// designated range out of the broadcast recording, registers the cut as a
// new ad or song master, and records a detection result for the range so the
// timeline reflects the designation on the next fetch. Speech designations
// record the detection only; no clip is extracted.
type ExtractHandler struct {
	cfg             *config.Config
	broadcastRepo   *repository.BroadcastRepository
	detectionRepo   *repository.DetectionRepository
	adRepo          *repository.AdMasterRepository
	songRepo        *repository.SongMasterRepository
	designationRepo *repository.DesignationRepository
	notifier        EventNotifier
}

func NewExtractHandler(cfg *config.Config, broadcastRepo *repository.BroadcastRepository,
	detectionRepo *repository.DetectionRepository, adRepo *repository.AdMasterRepository,
	songRepo *repository.SongMasterRepository, designationRepo *repository.DesignationRepository,
	notifier EventNotifier) *ExtractHandler {
	return &ExtractHandler{
		cfg:             cfg,
		broadcastRepo:   broadcastRepo,
		detectionRepo:   detectionRepo,
		adRepo:          adRepo,
		songRepo:        songRepo,
		designationRepo: designationRepo,
		notifier:        notifier,
	}
}

func (h *ExtractHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ExtractClipPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	d, err := h.designationRepo.GetByID(p.DesignationID)
	if err != nil {
		return fmt.Errorf("load designation %d: %w", p.DesignationID, err)
	}
	b, err := h.broadcastRepo.GetByID(d.BroadcastID)
	if err != nil {
		h.fail(d.ID, err)
		return fmt.Errorf("load broadcast %d: %w", d.BroadcastID, err)
	}

	log.Printf("[jobs] extract: designation %d on broadcast %d (%s %.0f..%.0f)",
		d.ID, b.ID, d.ClipType, d.StartTime, d.EndTime)

	masterID, err := h.materialize(b, d)
	if err != nil {
		h.fail(d.ID, err)
		return err
	}

	result := &models.DetectionResult{
		AdID:               masterID,
		BroadcastID:        b.ID,
		ClipType:           d.ClipType,
		Brand:              d.BrandArtist,
		Description:        d.AdvertisementName,
		StartTimeSeconds:   d.StartTime,
		EndTimeSeconds:     d.EndTime,
		DurationSeconds:    d.EndTime - d.StartTime,
		CorrelationScore:   1.0,
		RawCorrelation:     1.0,
		OverlapDuration:    d.EndTime - d.StartTime,
		DetectionTimestamp: time.Now().UTC().Format(time.RFC3339),
		ProcessingStatus:   "designated",
	}
	if err := h.detectionRepo.Create(result); err != nil {
		h.fail(d.ID, err)
		return fmt.Errorf("record designated detection: %w", err)
	}

	if err := h.designationRepo.UpdateStatus(d.ID, repository.DesignationDone); err != nil {
		return fmt.Errorf("mark designation done: %w", err)
	}
	if h.notifier != nil {
		h.notifier.Broadcast("designation:done", map[string]interface{}{
			"designation_id": d.ID,
			"broadcast_id":   b.ID,
		})
	}
	return nil
}

// materialize cuts the clip file and creates the master row. Returns the new
// master's ID, or EmptyAdID for speech designations.
func (h *ExtractHandler) materialize(b *models.Broadcast, d *repository.Designation) (int64, error) {
	if d.ClipType == models.ClipSpeech {
		return models.EmptyAdID, nil
	}

	srcPath := filepath.Join(h.cfg.AudioDir, "broadcasts", b.Filename)
	filename := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(b.Filename))
	duration := int(d.EndTime - d.StartTime)

	switch d.ClipType {
	case models.ClipAd:
		dstPath := filepath.Join(h.cfg.AudioDir, "ad_masters", filename)
		if err := ffmpeg.CutClip(h.cfg.FFmpegPath, srcPath, dstPath, d.StartTime, d.EndTime); err != nil {
			return 0, err
		}
		m := &models.AdMaster{
			Brand:           d.BrandArtist,
			Advertisement:   d.AdvertisementName,
			DurationSeconds: duration,
			Filename:        filename,
			Status:          models.MasterActive,
			City:            b.City,
			Language:        b.Language,
			RadioStation:    b.RadioStation,
		}
		if err := h.adRepo.Create(m); err != nil {
			return 0, fmt.Errorf("create ad master: %w", err)
		}
		return m.ID, nil

	case models.ClipSong:
		dstPath := filepath.Join(h.cfg.AudioDir, "song_masters", filename)
		if err := ffmpeg.CutClip(h.cfg.FFmpegPath, srcPath, dstPath, d.StartTime, d.EndTime); err != nil {
			return 0, err
		}
		m := &models.SongMaster{
			Artist:          d.BrandArtist,
			Name:            d.AdvertisementName,
			DurationSeconds: duration,
			Filename:        filename,
			Status:          models.MasterActive,
		}
		if err := h.songRepo.Create(m); err != nil {
			return 0, fmt.Errorf("create song master: %w", err)
		}
		return m.ID, nil
	}
	return 0, models.ErrInvalidClipType
}

func (h *ExtractHandler) fail(designationID int64, cause error) {
	log.Printf("[jobs] extract: designation %d failed: %v", designationID, cause)
	if err := h.designationRepo.UpdateStatus(designationID, repository.DesignationFailed); err != nil {
		log.Printf("[jobs] extract: mark designation %d failed: %v", designationID, err)
	}
	if h.notifier != nil {
		h.notifier.Broadcast("designation:failed", map[string]interface{}{
			"designation_id": designationID,
		})
	}
}
