package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/audioai/aircheck/internal/api"
	"github.com/audioai/aircheck/internal/config"
	"github.com/audioai/aircheck/internal/db"
	"github.com/audioai/aircheck/internal/detection"
	"github.com/audioai/aircheck/internal/jobs"
	"github.com/audioai/aircheck/internal/repository"
	"github.com/audioai/aircheck/internal/scheduler"
	"github.com/audioai/aircheck/internal/version"
)

func main() {
	log.Printf("aircheck %s starting...", version.Load())

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)

	queue := jobs.NewQueue(cfg.RedisAddr, cfg.MaxConcurrentJobs)
	defer queue.Stop()

	srv, err := api.NewServer(cfg, database, queue)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}

	broadcastRepo := repository.NewBroadcastRepository(database.DB)
	detectionRepo := repository.NewDetectionRepository(database.DB)
	adRepo := repository.NewAdMasterRepository(database.DB)
	songRepo := repository.NewSongMasterRepository(database.DB)
	designationRepo := repository.NewDesignationRepository(database.DB)

	engine := detection.NewCorrelator(cfg.FFmpegPath, cfg.CorrelationThreshold)
	jobs.RegisterHandlers(queue, cfg, engine, broadcastRepo, detectionRepo,
		adRepo, songRepo, designationRepo, srv.WSHub())

	ctx := context.Background()
	if err := queue.Start(ctx); err != nil {
		log.Fatalf("job queue failed to start: %v", err)
	}

	sched := scheduler.New(cfg, broadcastRepo, designationRepo, adRepo, songRepo,
		func(broadcastID int64) {
			taskID := fmt.Sprintf("detect:broadcast:%d", broadcastID)
			payload := jobs.DetectBroadcastPayload{BroadcastID: broadcastID}
			if _, err := queue.EnqueueUnique(jobs.TaskDetectBroadcast, payload, taskID,
				asynq.Timeout(2*time.Hour), asynq.Retention(time.Hour)); err != nil {
				log.Printf("re-queue broadcast %d: %v", broadcastID, err)
			}
		})
	sched.Start()
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)
}
