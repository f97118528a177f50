package repository

import (
	"database/sql"
	"time"

	"github.com/audioai/aircheck/internal/models"
)

// Designation is a stored operator designation awaiting (or finished
// with) clip extraction.
type Designation struct {
	ID          int64     `json:"id"`
	BroadcastID int64     `json:"broadcast_id"`
	models.DesignationRequest
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	DesignationPending = "pending"
	DesignationDone    = "done"
	DesignationFailed  = "failed"
)

type DesignationRepository struct {
	db *sql.DB
}

func NewDesignationRepository(db *sql.DB) *DesignationRepository {
	return &DesignationRepository{db: db}
}

func (r *DesignationRepository) Create(broadcastID int64, req models.DesignationRequest) (*Designation, error) {
	d := &Designation{BroadcastID: broadcastID, DesignationRequest: req, Status: DesignationPending}
	err := r.db.QueryRow(`
		INSERT INTO designations (broadcast_id, brand_artist, advertisement_name,
		                          start_time, end_time, clip_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		broadcastID, req.BrandArtist, req.AdvertisementName,
		req.StartTime, req.EndTime, req.ClipType).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DesignationRepository) GetByID(id int64) (*Designation, error) {
	d := &Designation{}
	err := r.db.QueryRow(`
		SELECT id, broadcast_id, brand_artist, advertisement_name,
		       start_time, end_time, clip_type, status, created_at
		FROM designations WHERE id = $1`, id).
		Scan(&d.ID, &d.BroadcastID, &d.BrandArtist, &d.AdvertisementName,
			&d.StartTime, &d.EndTime, &d.ClipType, &d.Status, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return d, err
}

func (r *DesignationRepository) UpdateStatus(id int64, status string) error {
	res, err := r.db.Exec(`UPDATE designations SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteOldFailed removes failed designations older than the retention
// window, for the cleanup scheduler.
func (r *DesignationRepository) DeleteOldFailed(retainDays int) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM designations
		WHERE status = $1 AND created_at < NOW() - ($2 || ' days')::interval`,
		DesignationFailed, retainDays)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
