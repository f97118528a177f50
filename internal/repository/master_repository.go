package repository

import (
	"database/sql"

	"github.com/audioai/aircheck/internal/models"
)

// ──────────────────── Ad masters ────────────────────

type AdMasterRepository struct {
	db *sql.DB
}

func NewAdMasterRepository(db *sql.DB) *AdMasterRepository {
	return &AdMasterRepository{db: db}
}

const adMasterColumns = `id, brand, advertisement, upload_date, duration_seconds,
	filename, status, city, language, category, radio_station, created_at`

func (r *AdMasterRepository) List() ([]*models.AdMaster, error) {
	rows, err := r.db.Query(`SELECT ` + adMasterColumns + ` FROM ad_masters ORDER BY upload_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AdMaster
	for rows.Next() {
		m := &models.AdMaster{}
		if err := rows.Scan(&m.ID, &m.Brand, &m.Advertisement, &m.UploadDate, &m.DurationSeconds,
			&m.Filename, &m.Status, &m.City, &m.Language, &m.Category, &m.RadioStation,
			&m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *AdMasterRepository) GetByID(id int64) (*models.AdMaster, error) {
	m := &models.AdMaster{}
	err := r.db.QueryRow(`SELECT `+adMasterColumns+` FROM ad_masters WHERE id = $1`, id).
		Scan(&m.ID, &m.Brand, &m.Advertisement, &m.UploadDate, &m.DurationSeconds,
			&m.Filename, &m.Status, &m.City, &m.Language, &m.Category, &m.RadioStation,
			&m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return m, err
}

func (r *AdMasterRepository) GetByFilename(filename string) (*models.AdMaster, error) {
	m := &models.AdMaster{}
	err := r.db.QueryRow(`SELECT `+adMasterColumns+` FROM ad_masters WHERE filename = $1`, filename).
		Scan(&m.ID, &m.Brand, &m.Advertisement, &m.UploadDate, &m.DurationSeconds,
			&m.Filename, &m.Status, &m.City, &m.Language, &m.Category, &m.RadioStation,
			&m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return m, err
}

func (r *AdMasterRepository) Create(m *models.AdMaster) error {
	return r.db.QueryRow(`
		INSERT INTO ad_masters (brand, advertisement, duration_seconds, filename,
		                        status, city, language, category, radio_station)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, upload_date, created_at`,
		m.Brand, m.Advertisement, m.DurationSeconds, m.Filename,
		m.Status, m.City, m.Language, m.Category, m.RadioStation).
		Scan(&m.ID, &m.UploadDate, &m.CreatedAt)
}

func (r *AdMasterRepository) UpdateStatus(id int64, status models.MasterStatus) error {
	res, err := r.db.Exec(`UPDATE ad_masters SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListActive returns the master clips eligible for detection matching.
func (r *AdMasterRepository) ListActive() ([]*models.AdMaster, error) {
	rows, err := r.db.Query(`SELECT `+adMasterColumns+` FROM ad_masters WHERE status = $1`, models.MasterActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AdMaster
	for rows.Next() {
		m := &models.AdMaster{}
		if err := rows.Scan(&m.ID, &m.Brand, &m.Advertisement, &m.UploadDate, &m.DurationSeconds,
			&m.Filename, &m.Status, &m.City, &m.Language, &m.Category, &m.RadioStation,
			&m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ──────────────────── Song masters ────────────────────

type SongMasterRepository struct {
	db *sql.DB
}

func NewSongMasterRepository(db *sql.DB) *SongMasterRepository {
	return &SongMasterRepository{db: db}
}

const songMasterColumns = `id, artist, name, upload_date, duration_seconds, filename, status`

func (r *SongMasterRepository) List() ([]*models.SongMaster, error) {
	rows, err := r.db.Query(`SELECT ` + songMasterColumns + ` FROM song_masters ORDER BY upload_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SongMaster
	for rows.Next() {
		m := &models.SongMaster{}
		if err := rows.Scan(&m.ID, &m.Artist, &m.Name, &m.UploadDate, &m.DurationSeconds,
			&m.Filename, &m.Status); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SongMasterRepository) GetByID(id int64) (*models.SongMaster, error) {
	m := &models.SongMaster{}
	err := r.db.QueryRow(`SELECT `+songMasterColumns+` FROM song_masters WHERE id = $1`, id).
		Scan(&m.ID, &m.Artist, &m.Name, &m.UploadDate, &m.DurationSeconds, &m.Filename, &m.Status)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return m, err
}

func (r *SongMasterRepository) GetByFilename(filename string) (*models.SongMaster, error) {
	m := &models.SongMaster{}
	err := r.db.QueryRow(`SELECT `+songMasterColumns+` FROM song_masters WHERE filename = $1`, filename).
		Scan(&m.ID, &m.Artist, &m.Name, &m.UploadDate, &m.DurationSeconds, &m.Filename, &m.Status)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return m, err
}

func (r *SongMasterRepository) Create(m *models.SongMaster) error {
	return r.db.QueryRow(`
		INSERT INTO song_masters (artist, name, duration_seconds, filename, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, upload_date`,
		m.Artist, m.Name, m.DurationSeconds, m.Filename, m.Status).
		Scan(&m.ID, &m.UploadDate)
}
