package jobs

import (
	"github.com/audioai/aircheck/internal/config"
	"github.com/audioai/aircheck/internal/detection"
	"github.com/audioai/aircheck/internal/repository"
)

// ──────── Payloads ────────

type DetectBroadcastPayload struct {
	BroadcastID int64 `json:"broadcast_id"`
}

type ExtractClipPayload struct {
	DesignationID int64 `json:"designation_id"`
}

// EventNotifier pushes job progress to connected consoles.
type EventNotifier interface {
	Broadcast(event string, data interface{})
}

// ──────── Register all handlers ────────

func RegisterHandlers(q *Queue, cfg *config.Config, engine detection.Engine,
	broadcastRepo *repository.BroadcastRepository, detectionRepo *repository.DetectionRepository,
	adRepo *repository.AdMasterRepository, songRepo *repository.SongMasterRepository,
	designationRepo *repository.DesignationRepository, notifier EventNotifier) {

	q.RegisterHandler(TaskDetectBroadcast, NewDetectHandler(cfg, engine, broadcastRepo, detectionRepo, adRepo, songRepo, notifier))
	q.RegisterHandler(TaskExtractClip, NewExtractHandler(cfg, broadcastRepo, detectionRepo, adRepo, songRepo, designationRepo, notifier))
}
