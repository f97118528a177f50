package api

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/audioai/aircheck/internal/designate"
	"github.com/audioai/aircheck/internal/httputil"
	"github.com/audioai/aircheck/internal/jobs"
	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/report"
	"github.com/audioai/aircheck/internal/timeline"
	"github.com/audioai/aircheck/internal/waveform"
)

const maxUploadBytes = 1 << 30 // 1 GiB; broadcast recordings run for hours

func (s *Server) handleListBroadcasts(w http.ResponseWriter, r *http.Request) {
	broadcasts, err := s.broadcastRepo.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list broadcasts")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: broadcasts})
}

func (s *Server) handleGetBroadcast(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBroadcast(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: b})
}

func (s *Server) handleUploadBroadcast(w http.ResponseWriter, r *http.Request) {
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

	station := r.FormValue("radio_station")
	if station == "" {
		s.respondError(w, http.StatusBadRequest, "radio_station is required")
		return
	}
	broadcastDate := time.Now()
	if d := r.FormValue("broadcast_date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "broadcast_date must be YYYY-MM-DD")
			return
		}
		broadcastDate = parsed
	}

	filename, path, err := s.saveUpload(file, header.Filename, "broadcasts")
	if err != nil {
		log.Printf("[api] save broadcast upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	duration := 0
	if probe, err := s.ffprobe.Probe(path); err == nil {
		if probe.GetAudioCodec() == "" {
			os.Remove(path)
			s.respondError(w, http.StatusBadRequest, "uploaded file has no audio stream")
			return
		}
		duration = probe.GetDurationSeconds()
	} else {
		log.Printf("[api] probe %s: %v", path, err)
	}

	b := &models.Broadcast{
		RadioStation:       station,
		BroadcastRecording: header.Filename,
		DurationSeconds:    duration,
		BroadcastDate:      broadcastDate,
		Filename:           filename,
		Status:             models.BroadcastPending,
		City:               r.FormValue("city"),
		Language:           r.FormValue("language"),
	}
	if err := s.broadcastRepo.Create(b); err != nil {
		os.Remove(path)
		s.respondError(w, http.StatusInternalServerError, "failed to create broadcast")
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: b})
}

func (s *Server) handleDeleteBroadcast(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBroadcast(w, r)
	if !ok {
		return
	}
	if err := s.broadcastRepo.Delete(b.ID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to delete broadcast")
		return
	}
	if err := os.Remove(filepath.Join(s.config.AudioDir, "broadcasts", b.Filename)); err != nil && !os.IsNotExist(err) {
		log.Printf("[api] remove broadcast file %s: %v", b.Filename, err)
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

// handleStartProcessing queues the analysis run for a broadcast. Re-running
// a Processed broadcast is allowed and replaces its detections; a broadcast
// already in Processing is rejected.
func (s *Server) handleStartProcessing(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBroadcast(w, r)
	if !ok {
		return
	}
	if b.Status == models.BroadcastProcessing {
		s.respondError(w, http.StatusConflict, "broadcast is already being processed")
		return
	}

	taskID := fmt.Sprintf("detect:broadcast:%d", b.ID)
	if _, err := s.jobQueue.EnqueueUnique(jobs.TaskDetectBroadcast,
		jobs.DetectBroadcastPayload{BroadcastID: b.ID}, taskID,
		asynq.Timeout(2*time.Hour), asynq.Retention(time.Hour)); err != nil {
		log.Printf("[api] enqueue detect for broadcast %d: %v", b.ID, err)
		s.respondError(w, http.StatusInternalServerError, "failed to queue processing")
		return
	}
	s.respondJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]interface{}{
		"broadcast_id": b.ID,
		"task_id":      taskID,
	}})
}

// handleListDetections returns a broadcast's detections. With ?normalized=1
// the list is the gapless integer-second timeline the console renders.
func (s *Server) handleListDetections(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBroadcast(w, r)
	if !ok {
		return
	}
	detections, err := s.detectionRepo.ListByBroadcast(r.Context(), b.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list detections")
		return
	}
	if r.URL.Query().Get("normalized") == "1" {
		detections = timeline.Normalize(detections, b.DurationSeconds)
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: detections})
}

// timelineSegment is a normalized segment plus its overlay color.
type timelineSegment struct {
	models.DetectionResult
	Color string `json:"color"`
}

// handleBroadcastTimeline returns the normalized timeline with overlay
// colors assigned, ready for the console to paint.
func (s *Server) handleBroadcastTimeline(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBroadcast(w, r)
	if !ok {
		return
	}
	detections, err := s.detectionRepo.ListByBroadcast(r.Context(), b.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list detections")
		return
	}

	segments := timeline.Normalize(detections, b.DurationSeconds)
	colors := timeline.AssignColors(segments)
	out := make([]timelineSegment, len(segments))
	for i, seg := range segments {
		out[i] = timelineSegment{
			DetectionResult: seg,
			Color:           colors[timeline.ColorKey{AdID: seg.AdID, ClipType: seg.ClipType}],
		}
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: out})
}

// handleBroadcastWaveform renders a waveform frame for the requested
// window. Query params: start, duration (seconds), width_px, bar_width_px.
func (s *Server) handleBroadcastWaveform(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBroadcast(w, r)
	if !ok {
		return
	}
	detections, err := s.detectionRepo.ListByBroadcast(r.Context(), b.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list detections")
		return
	}
	segments := timeline.Normalize(detections, b.DurationSeconds)

	vp := viewportForWindow(float64(b.DurationSeconds), queryFloat(r, "start"), queryFloat(r, "duration"))

	widthPx := queryInt(r, "width_px", 1000)
	barWidthPx := queryInt(r, "bar_width_px", 2)

	count := b.DurationSeconds
	if count < 500 {
		count = 500
	}
	amps := waveform.Amplitudes(b.Filename, count)
	frame := waveform.Render(amps, vp, segments, widthPx, barWidthPx)
	colors := timeline.AssignColors(segments)
	for i := range frame.Overlays {
		ov := &frame.Overlays[i]
		ov.Color = colors[timeline.ColorKey{AdID: ov.AdID, ClipType: ov.ClipType}]
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: frame})
}

// viewportForWindow builds a viewport for a requested window, holding the
// same minimum-zoom and bounds invariants interactive zooming enforces.
func viewportForWindow(total, start, duration float64) waveform.Viewport {
	vp := waveform.NewViewport(total)
	if duration > 0 && duration < vp.Total {
		if duration < waveform.MinZoomSeconds {
			duration = waveform.MinZoomSeconds
		}
		if duration > vp.Total {
			duration = vp.Total
		}
		vp.Duration = duration
	}
	vp.PanTo(start)
	return vp
}

func queryFloat(r *http.Request, key string) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil {
		return 0
	}
	return v
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// handleDesignateClip records an operator's classification of an empty
// timeline gap and queues clip extraction for it.
func (s *Server) handleDesignateClip(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBroadcast(w, r)
	if !ok {
		return
	}

	var req models.DesignationRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := designate.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EndTime > float64(b.DurationSeconds) {
		s.respondError(w, http.StatusBadRequest, "designated range exceeds broadcast duration")
		return
	}

	detections, err := s.detectionRepo.ListByBroadcast(r.Context(), b.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load detections")
		return
	}
	if !insideEmptyGap(timeline.Normalize(detections, b.DurationSeconds), req) {
		s.respondError(w, http.StatusConflict, "designated range overlaps an existing detection")
		return
	}

	d, err := s.designationRepo.Create(b.ID, req)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to store designation")
		return
	}

	taskID := fmt.Sprintf("extract:clip:%d", d.ID)
	if _, err := s.jobQueue.EnqueueUnique(jobs.TaskExtractClip,
		jobs.ExtractClipPayload{DesignationID: d.ID}, taskID,
		asynq.Timeout(10*time.Minute), asynq.Retention(time.Hour)); err != nil {
		log.Printf("[api] enqueue extract for designation %d: %v", d.ID, err)
		s.respondError(w, http.StatusInternalServerError, "failed to queue extraction")
		return
	}
	s.respondJSON(w, http.StatusAccepted, Response{Success: true, Data: d})
}

// insideEmptyGap reports whether the designated range lies within a single
// empty segment of the normalized timeline.
func insideEmptyGap(segments []models.DetectionResult, req models.DesignationRequest) bool {
	for _, seg := range segments {
		if seg.ClipType != models.ClipEmpty {
			continue
		}
		if req.StartTime >= seg.StartTimeSeconds && req.EndTime <= seg.EndTimeSeconds {
			return true
		}
	}
	return false
}

func (s *Server) handleBroadcastReport(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBroadcast(w, r)
	if !ok {
		return
	}
	detections, err := s.detectionRepo.ListByBroadcast(r.Context(), b.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list detections")
		return
	}

	f, err := report.Build(b, detections)
	if err != nil {
		log.Printf("[api] build report for broadcast %d: %v", b.ID, err)
		s.respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, report.Filename(b)))
	if err := f.Write(w); err != nil {
		log.Printf("[api] write report for broadcast %d: %v", b.ID, err)
	}
}

func (s *Server) loadBroadcast(w http.ResponseWriter, r *http.Request) (*models.Broadcast, bool) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid broadcast id")
		return nil, false
	}
	b, err := s.broadcastRepo.GetByID(id)
	if err == models.ErrNotFound {
		s.respondError(w, http.StatusNotFound, "broadcast not found")
		return nil, false
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load broadcast")
		return nil, false
	}
	return b, true
}

// saveUpload streams an uploaded file into the named audio subdirectory
// under a fresh UUID name, keeping the original extension.
func (s *Server) saveUpload(src io.Reader, originalName, subdir string) (filename, path string, err error) {
	dir := filepath.Join(s.config.AudioDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	filename = uuid.New().String() + filepath.Ext(originalName)
	path = filepath.Join(dir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", "", err
	}
	return filename, path, nil
}
