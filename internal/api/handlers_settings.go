package api

import (
	"net/http"
	"strconv"

	"github.com/audioai/aircheck/internal/httputil"
)

// Operator-tunable keys persisted in the settings table. Other keys are
// rejected so typos don't silently create dead rows.
var systemSettingKeys = []string{
	"correlation_threshold",
	"max_concurrent_jobs",
	"retain_failed_days",
	"ffmpeg_path",
}

func (s *Server) handleGetSystemSettings(w http.ResponseWriter, r *http.Request) {
	out := map[string]string{
		"correlation_threshold": strconv.FormatFloat(s.config.CorrelationThreshold, 'f', -1, 64),
		"max_concurrent_jobs":   strconv.Itoa(s.config.MaxConcurrentJobs),
		"retain_failed_days":    strconv.Itoa(s.config.RetainFailedDays),
		"ffmpeg_path":           s.config.FFmpegPath,
	}
	for _, key := range systemSettingKeys {
		if v, err := s.settingsRepo.Get(key); err == nil && v != "" {
			out[key] = v
		}
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: out})
}

func (s *Server) handleUpdateSystemSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for key, value := range req {
		if !isSystemSettingKey(key) {
			s.respondError(w, http.StatusBadRequest, "unknown setting: "+key)
			return
		}
		if err := s.settingsRepo.Set(key, value); err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to save setting "+key)
			return
		}
	}

	// Apply immediately; restarts pick the values up via MergeFromDB.
	s.config.MergeFromDB(s.db.DB)
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

func isSystemSettingKey(key string) bool {
	for _, k := range systemSettingKeys {
		if k == key {
			return true
		}
	}
	return false
}
