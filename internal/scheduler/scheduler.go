package scheduler

import (
	"log"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"

	"github.com/audioai/aircheck/internal/config"
	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/repository"
)

// OnDetectDue re-queues a broadcast whose processing run went stale.
type OnDetectDue func(broadcastID int64)

// Scheduler runs periodic maintenance: stale Processing broadcasts are
// re-queued, old failed designations are purged, and orphaned files in the
// audio directories are removed.
type Scheduler struct {
	cfg             *config.Config
	broadcastRepo   *repository.BroadcastRepository
	designationRepo *repository.DesignationRepository
	adRepo          *repository.AdMasterRepository
	songRepo        *repository.SongMasterRepository
	requeue         OnDetectDue
	cron            *cron.Cron
}

func New(cfg *config.Config, broadcastRepo *repository.BroadcastRepository,
	designationRepo *repository.DesignationRepository, adRepo *repository.AdMasterRepository,
	songRepo *repository.SongMasterRepository, requeue OnDetectDue) *Scheduler {
	return &Scheduler{
		cfg:             cfg,
		broadcastRepo:   broadcastRepo,
		designationRepo: designationRepo,
		adRepo:          adRepo,
		songRepo:        songRepo,
		requeue:         requeue,
		cron:            cron.New(),
	}
}

func (s *Scheduler) Start() {
	s.cron.AddFunc("*/10 * * * *", s.requeueStale)
	s.cron.AddFunc("30 3 * * *", s.cleanup)
	s.cron.Start()
	log.Println("[scheduler] maintenance jobs registered")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[scheduler] stopped")
}

// requeueStale finds broadcasts stuck in Processing for over 2 hours,
// usually from a worker crash mid-analysis, and queues them again.
func (s *Scheduler) requeueStale() {
	stale, err := s.broadcastRepo.ListStaleProcessing(2)
	if err != nil {
		log.Printf("[scheduler] list stale broadcasts: %v", err)
		return
	}
	for _, b := range stale {
		log.Printf("[scheduler] broadcast %d stuck in processing, re-queueing", b.ID)
		if err := s.broadcastRepo.UpdateStatus(b.ID, models.BroadcastPending); err != nil {
			log.Printf("[scheduler] reset broadcast %d: %v", b.ID, err)
			continue
		}
		s.requeue(b.ID)
	}
}

func (s *Scheduler) cleanup() {
	if n, err := s.designationRepo.DeleteOldFailed(s.cfg.RetainFailedDays); err != nil {
		log.Printf("[scheduler] purge failed designations: %v", err)
	} else if n > 0 {
		log.Printf("[scheduler] purged %d failed designations", n)
	}
	s.removeOrphans()
}

// removeOrphans deletes audio files no database row references.
func (s *Scheduler) removeOrphans() {
	broadcasts, err := s.broadcastRepo.List()
	if err != nil {
		log.Printf("[scheduler] list broadcasts: %v", err)
		return
	}
	ads, err := s.adRepo.List()
	if err != nil {
		log.Printf("[scheduler] list ad masters: %v", err)
		return
	}
	songs, err := s.songRepo.List()
	if err != nil {
		log.Printf("[scheduler] list song masters: %v", err)
		return
	}

	known := make(map[string]bool)
	for _, b := range broadcasts {
		known[filepath.Join("broadcasts", b.Filename)] = true
	}
	for _, a := range ads {
		known[filepath.Join("ad_masters", a.Filename)] = true
	}
	for _, m := range songs {
		known[filepath.Join("song_masters", m.Filename)] = true
	}

	for _, dir := range []string{"broadcasts", "ad_masters", "song_masters"} {
		entries, err := os.ReadDir(filepath.Join(s.cfg.AudioDir, dir))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || known[filepath.Join(dir, e.Name())] {
				continue
			}
			path := filepath.Join(s.cfg.AudioDir, dir, e.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("[scheduler] remove orphan %s: %v", path, err)
				continue
			}
			log.Printf("[scheduler] removed orphaned file %s", path)
		}
	}
}
