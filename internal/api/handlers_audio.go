package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/audioai/aircheck/internal/models"
)

// Audio is addressed by stored filename, mirroring the URLs the console
// builds, and served with http.ServeContent so the player can issue
// Range requests and seek without downloading the whole recording. The
// filename is resolved through its repository row first, so only files
// the database knows about are reachable.

func (s *Server) handleBroadcastAudio(w http.ResponseWriter, r *http.Request) {
	b, err := s.broadcastRepo.GetByFilename(r.PathValue("filename"))
	if err != nil {
		s.audioLookupError(w, err, "broadcast")
		return
	}
	s.serveAudio(w, r, filepath.Join("broadcasts", b.Filename))
}

func (s *Server) handleAdMasterAudio(w http.ResponseWriter, r *http.Request) {
	m, err := s.adRepo.GetByFilename(r.PathValue("filename"))
	if err != nil {
		s.audioLookupError(w, err, "ad master")
		return
	}
	s.serveAudio(w, r, filepath.Join("ad_masters", m.Filename))
}

func (s *Server) handleSongMasterAudio(w http.ResponseWriter, r *http.Request) {
	m, err := s.songRepo.GetByFilename(r.PathValue("filename"))
	if err != nil {
		s.audioLookupError(w, err, "song master")
		return
	}
	s.serveAudio(w, r, filepath.Join("song_masters", m.Filename))
}

func (s *Server) audioLookupError(w http.ResponseWriter, err error, kind string) {
	if err == models.ErrNotFound {
		s.respondError(w, http.StatusNotFound, kind+" not found")
		return
	}
	s.respondError(w, http.StatusInternalServerError, "failed to load "+kind)
}

func (s *Server) serveAudio(w http.ResponseWriter, r *http.Request, relPath string) {
	path := filepath.Join(s.config.AudioDir, relPath)
	f, err := os.Open(path)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "audio file not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to stat audio file")
		return
	}
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}
