package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/audioai/aircheck/internal/auth"
	"github.com/audioai/aircheck/internal/config"
	"github.com/audioai/aircheck/internal/db"
	"github.com/audioai/aircheck/internal/ffmpeg"
	"github.com/audioai/aircheck/internal/jobs"
	"github.com/audioai/aircheck/internal/repository"
)

type Server struct {
	config          *config.Config
	db              *db.DB
	auth            *auth.Auth
	userRepo        *repository.UserRepository
	broadcastRepo   *repository.BroadcastRepository
	detectionRepo   *repository.DetectionRepository
	adRepo          *repository.AdMasterRepository
	songRepo        *repository.SongMasterRepository
	designationRepo *repository.DesignationRepository
	settingsRepo    *repository.SettingsRepository
	ffprobe         *ffmpeg.FFprobe
	jobQueue        *jobs.Queue
	wsHub           *WSHub
	router          *http.ServeMux

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewServer(cfg *config.Config, database *db.DB, jobQueue *jobs.Queue) (*Server, error) {
	authService, err := auth.NewAuth(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:          cfg,
		db:              database,
		auth:            authService,
		userRepo:        repository.NewUserRepository(database.DB),
		broadcastRepo:   repository.NewBroadcastRepository(database.DB),
		detectionRepo:   repository.NewDetectionRepository(database.DB),
		adRepo:          repository.NewAdMasterRepository(database.DB),
		songRepo:        repository.NewSongMasterRepository(database.DB),
		designationRepo: repository.NewDesignationRepository(database.DB),
		settingsRepo:    repository.NewSettingsRepository(database.DB),
		ffprobe:         ffmpeg.NewFFprobe(cfg.FFprobePath),
		jobQueue:        jobQueue,
		wsHub:           NewWSHub(),
		router:          http.NewServeMux(),
		limiters:        make(map[string]*rate.Limiter),
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) setupRoutes() {
	// Public
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/v1/status", s.rlRead(s.handleStatus))
	s.router.HandleFunc("GET /api/v1/setup/check", s.rlRead(s.handleSetupCheck))
	s.router.HandleFunc("POST /api/v1/setup", s.handleSetup)
	s.router.HandleFunc("POST /api/v1/auth/login", s.rlAuth(s.handleLogin))
	s.router.HandleFunc("POST /api/v1/auth/logout", s.authMiddleware(s.handleLogout, false))

	// WebSocket player channel
	s.router.HandleFunc("GET /api/v1/ws", s.handleWebSocket)

	// Users
	s.router.HandleFunc("GET /api/v1/profile", s.authMiddleware(s.handleGetProfile, false))
	s.router.HandleFunc("GET /api/v1/users", s.authMiddleware(s.handleListUsers, true))
	s.router.HandleFunc("POST /api/v1/users", s.authMiddleware(s.handleCreateUser, true))

	// Broadcasts
	s.router.HandleFunc("GET /api/v1/broadcasts", s.authMiddleware(s.handleListBroadcasts, false))
	s.router.HandleFunc("POST /api/v1/broadcasts", s.authMiddleware(s.handleUploadBroadcast, false))
	s.router.HandleFunc("GET /api/v1/broadcasts/{id}", s.authMiddleware(s.handleGetBroadcast, false))
	s.router.HandleFunc("DELETE /api/v1/broadcasts/{id}", s.authMiddleware(s.handleDeleteBroadcast, true))
	s.router.HandleFunc("POST /api/v1/broadcasts/{id}/start-processing", s.authMiddleware(s.handleStartProcessing, false))
	s.router.HandleFunc("GET /api/v1/broadcasts/{id}/detections", s.authMiddleware(s.handleListDetections, false))
	s.router.HandleFunc("GET /api/v1/broadcasts/{id}/timeline", s.authMiddleware(s.handleBroadcastTimeline, false))
	s.router.HandleFunc("GET /api/v1/broadcasts/{id}/waveform", s.authMiddleware(s.handleBroadcastWaveform, false))
	s.router.HandleFunc("POST /api/v1/broadcasts/{id}/designate_clip", s.authMiddleware(s.handleDesignateClip, false))
	s.router.HandleFunc("GET /api/v1/broadcasts/{id}/report", s.authMiddleware(s.handleBroadcastReport, false))

	// Audio streaming, filename-addressed to match the URLs the console
	// builds for its <audio> elements.
	s.router.HandleFunc("GET /api/v1/audio/broadcasts/{filename}", s.authMiddleware(s.handleBroadcastAudio, false))
	s.router.HandleFunc("GET /api/v1/audio/ad_masters/{filename}", s.authMiddleware(s.handleAdMasterAudio, false))
	s.router.HandleFunc("GET /api/v1/audio/song_masters/{filename}", s.authMiddleware(s.handleSongMasterAudio, false))

	// Ad masters
	s.router.HandleFunc("GET /api/v1/ad_masters", s.authMiddleware(s.handleListAdMasters, false))
	s.router.HandleFunc("POST /api/v1/ad_masters", s.authMiddleware(s.handleUploadAdMaster, false))
	s.router.HandleFunc("GET /api/v1/ad_masters/{id}", s.authMiddleware(s.handleGetAdMaster, false))
	s.router.HandleFunc("PUT /api/v1/ad_masters/{id}/status", s.authMiddleware(s.handleSetAdMasterStatus, false))

	// Song masters
	s.router.HandleFunc("GET /api/v1/song_masters", s.authMiddleware(s.handleListSongMasters, false))
	s.router.HandleFunc("POST /api/v1/song_masters", s.authMiddleware(s.handleUploadSongMaster, false))

	// System settings (admin only)
	s.router.HandleFunc("GET /api/v1/settings/system", s.authMiddleware(s.handleGetSystemSettings, true))
	s.router.HandleFunc("PUT /api/v1/settings/system", s.authMiddleware(s.handleUpdateSystemSettings, true))
}

// ──────────────────── Middleware ────────────────────

func (s *Server) authMiddleware(next http.HandlerFunc, adminOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else if t := r.URL.Query().Get("token"); t != "" {
			// Audio elements can't set headers; allow token via query param
			// on streaming endpoints.
			tokenString = t
		} else {
			s.respondError(w, http.StatusUnauthorized, "missing authorization")
			return
		}

		claims, err := s.auth.ValidateToken(tokenString)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if adminOnly && !claims.IsAdmin {
			s.respondError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		r.Header.Set("X-User-ID", strconv.FormatInt(claims.UserID, 10))
		next(w, r)
	}
}

// rlAuth rate-limits credential endpoints per client IP.
func (s *Server) rlAuth(next http.HandlerFunc) http.HandlerFunc {
	return s.rateLimit(next, rate.Limit(1), 5)
}

// rlRead rate-limits unauthenticated read endpoints per client IP.
func (s *Server) rlRead(next http.HandlerFunc) http.HandlerFunc {
	return s.rateLimit(next, rate.Limit(10), 30)
}

func (s *Server) rateLimit(next http.HandlerFunc, limit rate.Limit, burst int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		s.limitersMu.Lock()
		key := ip + "/" + strconv.Itoa(burst)
		limiter, ok := s.limiters[key]
		if !ok {
			limiter = rate.NewLimiter(limit, burst)
			s.limiters[key] = limiter
		}
		s.limitersMu.Unlock()

		if !limiter.Allow() {
			s.respondError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}

// ──────────────────── Helpers ────────────────────

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, Response{Success: false, Error: message})
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.securityHeadersMiddleware(s.corsMiddleware(s.router)).ServeHTTP(w, r)
}

// securityHeadersMiddleware adds standard security headers to all responses.
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-XSS-Protection", "0")
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles CORS preflight and response headers globally.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
