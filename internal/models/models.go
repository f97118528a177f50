package models

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidClipType = errors.New("invalid clip type")
)

// ──────────────────── Enums ────────────────────

// ClipType labels a detected (or operator-designated) time interval
// within a broadcast. Empty marks broadcast time no detection covers.
type ClipType string

const (
	ClipAd     ClipType = "ad"
	ClipSong   ClipType = "song"
	ClipSpeech ClipType = "speech"
	ClipEmpty  ClipType = "empty"
)

// Valid reports whether t is a clip type an operator may designate.
// Empty is synthesized by the timeline normalizer and never submitted.
func (t ClipType) Valid() bool {
	switch t {
	case ClipAd, ClipSong, ClipSpeech:
		return true
	}
	return false
}

type BroadcastStatus string

const (
	BroadcastPending    BroadcastStatus = "Pending"
	BroadcastProcessing BroadcastStatus = "Processing"
	BroadcastProcessed  BroadcastStatus = "Processed"
)

type MasterStatus string

const (
	MasterActive   MasterStatus = "Active"
	MasterInactive MasterStatus = "Inactive"
)

// EmptyAdID is the reserved ad_id for synthesized empty segments.
const EmptyAdID = -1

// ──────────────────── Broadcast ────────────────────

type Broadcast struct {
	ID                 int64           `json:"id" db:"id"`
	RadioStation       string          `json:"radio_station" db:"radio_station"`
	BroadcastRecording string          `json:"broadcast_recording" db:"broadcast_recording"`
	DurationSeconds    int             `json:"duration" db:"duration_seconds"`
	BroadcastDate      time.Time       `json:"broadcast_date" db:"broadcast_date"`
	Filename           string          `json:"filename" db:"filename"`
	Status             BroadcastStatus `json:"status" db:"status"`
	City               string          `json:"city" db:"city"`
	Language           string          `json:"language" db:"language"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Master clips ────────────────────

type AdMaster struct {
	ID              int64        `json:"id" db:"id"`
	Brand           string       `json:"brand" db:"brand"`
	Advertisement   string       `json:"advertisement" db:"advertisement"`
	UploadDate      time.Time    `json:"upload_date" db:"upload_date"`
	DurationSeconds int          `json:"duration" db:"duration_seconds"`
	Filename        string       `json:"filename" db:"filename"`
	Status          MasterStatus `json:"status" db:"status"`
	City            string       `json:"city" db:"city"`
	Language        string       `json:"language" db:"language"`
	Category        string       `json:"category" db:"category"`
	RadioStation    string       `json:"radio_station" db:"radio_station"`
	CreatedAt       time.Time    `json:"creation_date" db:"created_at"`
}

type SongMaster struct {
	ID              int64        `json:"id" db:"id"`
	Artist          string       `json:"artist" db:"artist"`
	Name            string       `json:"name" db:"name"`
	UploadDate      time.Time    `json:"upload_date" db:"upload_date"`
	DurationSeconds int          `json:"duration" db:"duration_seconds"`
	Filename        string       `json:"filename" db:"filename"`
	Status          MasterStatus `json:"status" db:"status"`
}

// ──────────────────── Detection results ────────────────────

// DetectionResult is one detected occurrence of a master clip within a
// broadcast. AdID identifies the master clip, not the occurrence; it is
// EmptyAdID for synthesized empty segments. Start/end are broadcast-relative
// seconds; the analysis pipeline emits fractional values, the timeline
// normalizer rounds them to integers.
type DetectionResult struct {
	ID                 int64    `json:"id" db:"id"`
	AdID               int64    `json:"ad_id" db:"ad_id"`
	BroadcastID        int64    `json:"broadcast_id" db:"broadcast_id"`
	ClipType           ClipType `json:"clip_type" db:"clip_type"`
	Brand              string   `json:"brand" db:"brand"`
	Description        string   `json:"description" db:"description"`
	StartTimeSeconds   float64  `json:"start_time_seconds" db:"start_time_seconds"`
	EndTimeSeconds     float64  `json:"end_time_seconds" db:"end_time_seconds"`
	DurationSeconds    float64  `json:"duration_seconds" db:"duration_seconds"`
	CorrelationScore   float64  `json:"correlation_score" db:"correlation_score"`
	RawCorrelation     float64  `json:"raw_correlation" db:"raw_correlation"`
	MFCCCorrelation    float64  `json:"mfcc_correlation" db:"mfcc_correlation"`
	OverlapDuration    float64  `json:"overlap_duration" db:"overlap_duration"`
	DetectionTimestamp string   `json:"detection_timestamp" db:"detection_timestamp"`
	ProcessingStatus   string   `json:"processing_status" db:"processing_status"`
	TotalMatchesFound  int      `json:"total_matches_found" db:"total_matches_found"`
}

// ──────────────────── Designation ────────────────────

// DesignationRequest is the operator's classification of a previously
// empty interval. BrandArtist and AdvertisementName are required for
// ad and song designations; speech needs neither.
type DesignationRequest struct {
	BrandArtist       string   `json:"brand_artist"`
	AdvertisementName string   `json:"advertisement_name"`
	StartTime         float64  `json:"start_time" validate:"gte=0"`
	EndTime           float64  `json:"end_time" validate:"gtefield=StartTime"`
	ClipType          ClipType `json:"clip_type" validate:"required,oneof=ad song speech"`
}

// ──────────────────── User ────────────────────

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
