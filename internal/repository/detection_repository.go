package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/audioai/aircheck/internal/models"
)

type DetectionRepository struct {
	db *sql.DB
}

func NewDetectionRepository(db *sql.DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

const detectionColumns = `id, ad_id, broadcast_id, clip_type, brand, description,
	start_time_seconds, end_time_seconds, duration_seconds,
	correlation_score, raw_correlation, mfcc_correlation, overlap_duration,
	detection_timestamp, processing_status, total_matches_found`

// ListByBroadcast returns the raw (unordered, possibly overlapping)
// detections for one broadcast, as the analysis pipeline stored them.
func (r *DetectionRepository) ListByBroadcast(ctx context.Context, broadcastID int64) ([]models.DetectionResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+detectionColumns+` FROM detection_results WHERE broadcast_id = $1`, broadcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DetectionResult
	for rows.Next() {
		var d models.DetectionResult
		if err := rows.Scan(&d.ID, &d.AdID, &d.BroadcastID, &d.ClipType, &d.Brand, &d.Description,
			&d.StartTimeSeconds, &d.EndTimeSeconds, &d.DurationSeconds,
			&d.CorrelationScore, &d.RawCorrelation, &d.MFCCCorrelation, &d.OverlapDuration,
			&d.DetectionTimestamp, &d.ProcessingStatus, &d.TotalMatchesFound); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DetectionRepository) Create(d *models.DetectionResult) error {
	return r.db.QueryRow(`
		INSERT INTO detection_results (ad_id, broadcast_id, clip_type, brand, description,
			start_time_seconds, end_time_seconds, duration_seconds,
			correlation_score, raw_correlation, mfcc_correlation, overlap_duration,
			detection_timestamp, processing_status, total_matches_found)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		d.AdID, d.BroadcastID, d.ClipType, d.Brand, d.Description,
		d.StartTimeSeconds, d.EndTimeSeconds, d.DurationSeconds,
		d.CorrelationScore, d.RawCorrelation, d.MFCCCorrelation, d.OverlapDuration,
		d.DetectionTimestamp, d.ProcessingStatus, d.TotalMatchesFound).
		Scan(&d.ID)
}

// ReplaceForBroadcast swaps a broadcast's detection set atomically, for
// an analysis re-run.
func (r *DetectionRepository) ReplaceForBroadcast(broadcastID int64, detections []models.DetectionResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM detection_results WHERE broadcast_id = $1`, broadcastID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO detection_results (ad_id, broadcast_id, clip_type, brand, description,
			start_time_seconds, end_time_seconds, duration_seconds,
			correlation_score, raw_correlation, mfcc_correlation, overlap_duration,
			detection_timestamp, processing_status, total_matches_found)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range detections {
		if _, err := stmt.Exec(d.AdID, broadcastID, d.ClipType, d.Brand, d.Description,
			d.StartTimeSeconds, d.EndTimeSeconds, d.DurationSeconds,
			d.CorrelationScore, d.RawCorrelation, d.MFCCCorrelation, d.OverlapDuration,
			d.DetectionTimestamp, d.ProcessingStatus, d.TotalMatchesFound); err != nil {
			return fmt.Errorf("insert detection for ad %d: %w", d.AdID, err)
		}
	}

	return tx.Commit()
}
