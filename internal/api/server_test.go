package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioai/aircheck/internal/config"
	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/waveform"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr with port", "203.0.113.7:51234", "", "203.0.113.7"},
		{"forwarded single", "10.0.0.1:80", "198.51.100.4", "198.51.100.4"},
		{"forwarded chain takes first", "10.0.0.1:80", "198.51.100.4, 10.0.0.2, 10.0.0.3", "198.51.100.4"},
		{"forwarded with spaces", "10.0.0.1:80", "  198.51.100.4  ", "198.51.100.4"},
		{"remote addr without port", "203.0.113.7", "", "203.0.113.7"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	t.Parallel()

	s := &Server{}
	h := s.securityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	s := &Server{}
	var reachedNext bool
	h := s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reachedNext = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("preflight short-circuits", func(t *testing.T) {
		reachedNext = false
		r := httptest.NewRequest(http.MethodOptions, "/api/v1/broadcasts", nil)
		r.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, reachedNext)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("regular request passes through", func(t *testing.T) {
		reachedNext = false
		r := httptest.NewRequest(http.MethodGet, "/api/v1/broadcasts", nil)
		r.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reachedNext)
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

	t.Run("no origin adds no cors headers", func(t *testing.T) {
		reachedNext = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.True(t, reachedNext)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRespondError(t *testing.T) {
	t.Parallel()

	s := &Server{}
	rec := httptest.NewRecorder()
	s.respondError(rec, http.StatusNotFound, "broadcast not found")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"broadcast not found"}`, rec.Body.String())
}

func TestViewportForWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		total           float64
		start, duration float64
		wantStart       float64
		wantDuration    float64
	}{
		{"explicit window", 600, 50, 100, 50, 100},
		{"no duration keeps full view", 600, 0, 0, 0, 600},
		{"duration below min zoom is clamped", 600, 50, 1, 50, waveform.MinZoomSeconds},
		{"duration past total keeps full view", 600, 0, 700, 0, 600},
		{"short broadcast caps at total", 5, 0, 1, 0, 5},
		{"start clamped to fit window", 600, 590, 100, 500, 100},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			vp := viewportForWindow(tt.total, tt.start, tt.duration)
			assert.InDelta(t, tt.wantStart, vp.Start, 1e-9)
			assert.InDelta(t, tt.wantDuration, vp.Duration, 1e-9)
			assert.InDelta(t, tt.total, vp.Total, 1e-9)
		})
	}
}

func TestServeAudioSupportsRangeRequests(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broadcasts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broadcasts", "show.mp3"), []byte("abcdefgh"), 0o644))

	s := &Server{config: &config.Config{AudioDir: dir}}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/audio/broadcasts/show.mp3", nil)
	r.Header.Set("Range", "bytes=0-3")
	rec := httptest.NewRecorder()
	s.serveAudio(rec, r, filepath.Join("broadcasts", "show.mp3"))

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "abcd", rec.Body.String())
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))

	rec = httptest.NewRecorder()
	s.serveAudio(rec, httptest.NewRequest(http.MethodGet, "/api/v1/audio/broadcasts/gone.mp3", nil), filepath.Join("broadcasts", "gone.mp3"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsideEmptyGap(t *testing.T) {
	t.Parallel()

	segments := []models.DetectionResult{
		{ClipType: models.ClipAd, StartTimeSeconds: 0, EndTimeSeconds: 30},
		{ClipType: models.ClipEmpty, StartTimeSeconds: 30, EndTimeSeconds: 90},
		{ClipType: models.ClipSong, StartTimeSeconds: 90, EndTimeSeconds: 150},
		{ClipType: models.ClipEmpty, StartTimeSeconds: 150, EndTimeSeconds: 180},
	}

	tests := []struct {
		name       string
		start, end float64
		want       bool
	}{
		{"fully inside first gap", 40, 70, true},
		{"exact gap bounds", 30, 90, true},
		{"inside second gap", 155, 175, true},
		{"spans gap and song", 60, 100, false},
		{"inside ad segment", 5, 20, false},
		{"crosses gap boundary on the left", 25, 60, false},
		{"past the timeline", 180, 200, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := models.DesignationRequest{StartTime: tt.start, EndTime: tt.end}
			assert.Equal(t, tt.want, insideEmptyGap(segments, req))
		})
	}
}
