package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/audioai/aircheck/internal/config"
	"github.com/audioai/aircheck/internal/detection"
	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/repository"
)

// ──────── Detect Broadcast Handler ────────

// DetectHandler runs the analysis engine over one broadcast recording and
// replaces its stored detection results. Broadcast status moves
// Pending → Processing → Processed; a failed run drops back to Pending so
// the broadcast can be re-queued.
type DetectHandler struct {
	cfg           *config.Config
	engine        detection.Engine
	broadcastRepo *repository.BroadcastRepository
	detectionRepo *repository.DetectionRepository
	adRepo        *repository.AdMasterRepository
	songRepo      *repository.SongMasterRepository
	notifier      EventNotifier
}

func NewDetectHandler(cfg *config.Config, engine detection.Engine,
	broadcastRepo *repository.BroadcastRepository, detectionRepo *repository.DetectionRepository,
	adRepo *repository.AdMasterRepository, songRepo *repository.SongMasterRepository,
	notifier EventNotifier) *DetectHandler {
	return &DetectHandler{
		cfg:           cfg,
		engine:        engine,
		broadcastRepo: broadcastRepo,
		detectionRepo: detectionRepo,
		adRepo:        adRepo,
		songRepo:      songRepo,
		notifier:      notifier,
	}
}

func (h *DetectHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p DetectBroadcastPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	b, err := h.broadcastRepo.GetByID(p.BroadcastID)
	if err != nil {
		return fmt.Errorf("load broadcast %d: %w", p.BroadcastID, err)
	}

	log.Printf("[jobs] detect: analyzing broadcast %d (%s)", b.ID, b.Filename)
	if err := h.broadcastRepo.UpdateStatus(b.ID, models.BroadcastProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	h.notify("broadcast:processing", b.ID, 0)

	masters, err := h.loadMasters()
	if err != nil {
		h.revert(b.ID)
		return err
	}

	matches, err := h.engine.Analyze(ctx, filepath.Join(h.cfg.AudioDir, "broadcasts", b.Filename), masters)
	if err != nil {
		h.revert(b.ID)
		return fmt.Errorf("analyze broadcast %d: %w", b.ID, err)
	}

	results := h.toResults(b, matches)
	if err := h.detectionRepo.ReplaceForBroadcast(b.ID, results); err != nil {
		h.revert(b.ID)
		return fmt.Errorf("store detections: %w", err)
	}

	if err := h.broadcastRepo.UpdateStatus(b.ID, models.BroadcastProcessed); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	h.notify("broadcast:processed", b.ID, len(results))
	log.Printf("[jobs] detect: broadcast %d done, %d matches", b.ID, len(results))
	return nil
}

func (h *DetectHandler) loadMasters() ([]detection.Master, error) {
	ads, err := h.adRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list ad masters: %w", err)
	}
	songs, err := h.songRepo.List()
	if err != nil {
		return nil, fmt.Errorf("list song masters: %w", err)
	}

	masters := make([]detection.Master, 0, len(ads)+len(songs))
	for _, a := range ads {
		masters = append(masters, detection.Master{
			ID:       a.ID,
			ClipType: models.ClipAd,
			FilePath: filepath.Join(h.cfg.AudioDir, "ad_masters", a.Filename),
		})
	}
	for _, s := range songs {
		if s.Status != models.MasterActive {
			continue
		}
		masters = append(masters, detection.Master{
			ID:       s.ID,
			ClipType: models.ClipSong,
			FilePath: filepath.Join(h.cfg.AudioDir, "song_masters", s.Filename),
		})
	}
	return masters, nil
}

func (h *DetectHandler) toResults(b *models.Broadcast, matches []detection.Match) []models.DetectionResult {
	now := time.Now().UTC().Format(time.RFC3339)
	results := make([]models.DetectionResult, 0, len(matches))
	for _, m := range matches {
		r := models.DetectionResult{
			AdID:               m.MasterID,
			BroadcastID:        b.ID,
			ClipType:           m.ClipType,
			StartTimeSeconds:   m.StartTimeSeconds,
			EndTimeSeconds:     m.EndTimeSeconds,
			DurationSeconds:    m.EndTimeSeconds - m.StartTimeSeconds,
			CorrelationScore:   m.CorrelationScore,
			RawCorrelation:     m.RawCorrelation,
			MFCCCorrelation:    m.MFCCCorrelation,
			OverlapDuration:    m.OverlapDuration,
			DetectionTimestamp: now,
			ProcessingStatus:   "completed",
			TotalMatchesFound:  len(matches),
		}
		r.Brand, r.Description = h.masterLabel(m)
		results = append(results, r)
	}
	return results
}

// masterLabel resolves display metadata for a match from its master row.
func (h *DetectHandler) masterLabel(m detection.Match) (string, string) {
	switch m.ClipType {
	case models.ClipAd:
		if a, err := h.adRepo.GetByID(m.MasterID); err == nil {
			return a.Brand, a.Advertisement
		}
	case models.ClipSong:
		if s, err := h.songRepo.GetByID(m.MasterID); err == nil {
			return s.Artist, s.Name
		}
	}
	return "", ""
}

func (h *DetectHandler) revert(broadcastID int64) {
	if err := h.broadcastRepo.UpdateStatus(broadcastID, models.BroadcastPending); err != nil {
		log.Printf("[jobs] detect: revert broadcast %d to pending: %v", broadcastID, err)
	}
	h.notify("broadcast:failed", broadcastID, 0)
}

func (h *DetectHandler) notify(event string, broadcastID int64, count int) {
	if h.notifier == nil {
		return
	}
	h.notifier.Broadcast(event, map[string]interface{}{
		"broadcast_id": broadcastID,
		"detections":   count,
	})
}
