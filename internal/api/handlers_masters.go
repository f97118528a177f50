package api

import (
	"log"
	"net/http"
	"os"

	"github.com/audioai/aircheck/internal/httputil"
	"github.com/audioai/aircheck/internal/models"
)

// ──────────────────── Ad masters ────────────────────

func (s *Server) handleListAdMasters(w http.ResponseWriter, r *http.Request) {
	masters, err := s.adRepo.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list ad masters")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: masters})
}

func (s *Server) handleGetAdMaster(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid master id")
		return
	}
	m, err := s.adRepo.GetByID(id)
	if err == models.ErrNotFound {
		s.respondError(w, http.StatusNotFound, "ad master not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load ad master")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: m})
}

func (s *Server) handleUploadAdMaster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer file.Close()

	brand := r.FormValue("brand")
	advertisement := r.FormValue("advertisement")
	if brand == "" || advertisement == "" {
		s.respondError(w, http.StatusBadRequest, "brand and advertisement are required")
		return
	}

	filename, path, err := s.saveUpload(file, header.Filename, "ad_masters")
	if err != nil {
		log.Printf("[api] save ad master upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	duration := 0
	if probe, err := s.ffprobe.Probe(path); err == nil {
		duration = probe.GetDurationSeconds()
	}

	m := &models.AdMaster{
		Brand:           brand,
		Advertisement:   advertisement,
		DurationSeconds: duration,
		Filename:        filename,
		Status:          models.MasterActive,
		City:            r.FormValue("city"),
		Language:        r.FormValue("language"),
		Category:        r.FormValue("category"),
		RadioStation:    r.FormValue("radio_station"),
	}
	if err := s.adRepo.Create(m); err != nil {
		os.Remove(path)
		s.respondError(w, http.StatusInternalServerError, "failed to create ad master")
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: m})
}

// handleSetAdMasterStatus toggles whether a master participates in
// detection runs.
func (s *Server) handleSetAdMasterStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid master id")
		return
	}
	var req struct {
		Status models.MasterStatus `json:"status"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != models.MasterActive && req.Status != models.MasterInactive {
		s.respondError(w, http.StatusBadRequest, "status must be Active or Inactive")
		return
	}
	if err := s.adRepo.UpdateStatus(id, req.Status); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

// ──────────────────── Song masters ────────────────────

func (s *Server) handleListSongMasters(w http.ResponseWriter, r *http.Request) {
	masters, err := s.songRepo.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list song masters")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: masters})
}

func (s *Server) handleUploadSongMaster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer file.Close()

	artist := r.FormValue("artist")
	name := r.FormValue("name")
	if artist == "" || name == "" {
		s.respondError(w, http.StatusBadRequest, "artist and name are required")
		return
	}

	filename, path, err := s.saveUpload(file, header.Filename, "song_masters")
	if err != nil {
		log.Printf("[api] save song master upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	duration := 0
	if probe, err := s.ffprobe.Probe(path); err == nil {
		duration = probe.GetDurationSeconds()
	}

	m := &models.SongMaster{
		Artist:          artist,
		Name:            name,
		DurationSeconds: duration,
		Filename:        filename,
		Status:          models.MasterActive,
	}
	if err := s.songRepo.Create(m); err != nil {
		os.Remove(path)
		s.respondError(w, http.StatusInternalServerError, "failed to create song master")
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: m})
}
