package repository

import (
	"database/sql"

	"github.com/audioai/aircheck/internal/models"
)

type BroadcastRepository struct {
	db *sql.DB
}

func NewBroadcastRepository(db *sql.DB) *BroadcastRepository {
	return &BroadcastRepository{db: db}
}

const broadcastColumns = `id, radio_station, broadcast_recording, duration_seconds,
	broadcast_date, filename, status, city, language, created_at, updated_at`

func scanBroadcast(row interface{ Scan(...interface{}) error }) (*models.Broadcast, error) {
	b := &models.Broadcast{}
	err := row.Scan(&b.ID, &b.RadioStation, &b.BroadcastRecording, &b.DurationSeconds,
		&b.BroadcastDate, &b.Filename, &b.Status, &b.City, &b.Language,
		&b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return b, err
}

// List returns all broadcasts, newest first.
func (r *BroadcastRepository) List() ([]*models.Broadcast, error) {
	rows, err := r.db.Query(`SELECT ` + broadcastColumns + ` FROM broadcasts ORDER BY broadcast_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Broadcast
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BroadcastRepository) GetByID(id int64) (*models.Broadcast, error) {
	return scanBroadcast(r.db.QueryRow(`SELECT `+broadcastColumns+` FROM broadcasts WHERE id = $1`, id))
}

func (r *BroadcastRepository) GetByFilename(filename string) (*models.Broadcast, error) {
	return scanBroadcast(r.db.QueryRow(`SELECT `+broadcastColumns+` FROM broadcasts WHERE filename = $1`, filename))
}

func (r *BroadcastRepository) Create(b *models.Broadcast) error {
	return r.db.QueryRow(`
		INSERT INTO broadcasts (radio_station, broadcast_recording, duration_seconds,
		                        broadcast_date, filename, status, city, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		b.RadioStation, b.BroadcastRecording, b.DurationSeconds, b.BroadcastDate,
		b.Filename, b.Status, b.City, b.Language).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// UpdateStatus advances the processing lifecycle (Pending → Processing →
// Processed).
func (r *BroadcastRepository) UpdateStatus(id int64, status models.BroadcastStatus) error {
	res, err := r.db.Exec(`UPDATE broadcasts SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListStaleProcessing returns broadcasts stuck in Processing longer than
// maxAgeHours, for the cleanup scheduler.
func (r *BroadcastRepository) ListStaleProcessing(maxAgeHours int) ([]*models.Broadcast, error) {
	rows, err := r.db.Query(`SELECT `+broadcastColumns+` FROM broadcasts
		WHERE status = $1 AND updated_at < NOW() - ($2 || ' hours')::interval`,
		models.BroadcastProcessing, maxAgeHours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Broadcast
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BroadcastRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM broadcasts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
