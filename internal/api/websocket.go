package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"nhooyr.io/websocket"

	"github.com/audioai/aircheck/internal/jobs"
	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/player"
)

// ──────────────────── WebSocket Hub ────────────────────

type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool
}

type WSClient struct {
	conn   *websocket.Conn
	userID int64
	send   chan []byte
}

type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*WSClient]bool)}
}

// Broadcast pushes an event to every connected console. Job handlers use
// this for processing progress.
func (h *WSHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

func (h *WSHub) addClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *WSHub) removeClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send lets a per-connection player.Manager push state to its console.
func (c *WSClient) Send(event string, data interface{}) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// ──────────────────── Designation submission ────────────────────

// Submit implements designate.Submitter: it persists the designation and
// queues clip extraction. Field and range validation has already happened
// in the workflow.
func (s *Server) Submit(ctx context.Context, broadcastID int64, req models.DesignationRequest) error {
	d, err := s.designationRepo.Create(broadcastID, req)
	if err != nil {
		return fmt.Errorf("store designation: %w", err)
	}
	taskID := fmt.Sprintf("extract:clip:%d", d.ID)
	if _, err := s.jobQueue.EnqueueUnique(jobs.TaskExtractClip,
		jobs.ExtractClipPayload{DesignationID: d.ID}, taskID,
		asynq.Timeout(10*time.Minute), asynq.Retention(time.Hour)); err != nil {
		return fmt.Errorf("queue extraction: %w", err)
	}
	return nil
}

// ──────────────────── WebSocket Handler ────────────────────

// playerCommand is an inbound console message. Data stays raw until the
// event name picks the payload type.
type playerCommand struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := s.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[ws] accept error: %v", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan []byte, 64),
	}

	s.wsHub.addClient(client)
	log.Printf("[ws] console connected: user %d", claims.UserID)

	// One playback context per console connection.
	mgr := player.NewManager(s.detectionRepo, s, client)

	ctx := r.Context()

	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range client.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var cmd playerCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			client.Send("error", map[string]string{"message": "malformed command"})
			continue
		}
		s.dispatchPlayerCommand(ctx, mgr, client, cmd)
	}

	mgr.Close()
	s.wsHub.removeClient(client)
	log.Printf("[ws] console disconnected: user %d", claims.UserID)
}

func (s *Server) dispatchPlayerCommand(ctx context.Context, mgr *player.Manager, client *WSClient, cmd playerCommand) {
	fail := func(err error) {
		client.Send("error", map[string]string{"event": cmd.Event, "message": err.Error()})
	}

	switch cmd.Event {
	case "player:open":
		var p struct {
			BroadcastID int64 `json:"broadcast_id"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		b, err := s.broadcastRepo.GetByID(p.BroadcastID)
		if err != nil {
			fail(err)
			return
		}
		mgr.Open(ctx, *b)

	case "player:close":
		mgr.Close()

	case "player:tick":
		var p struct {
			BroadcastID int64   `json:"broadcast_id"`
			Time        float64 `json:"time"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		mgr.ControlsTick(p.BroadcastID, p.Time)

	case "player:seek":
		var p struct {
			BroadcastID int64   `json:"broadcast_id"`
			ClickX      float64 `json:"click_x"`
			WidthPx     float64 `json:"width_px"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		mgr.SeekFromWaveform(p.BroadcastID, p.ClickX, p.WidthPx)

	case "player:playing":
		var p struct {
			Playing bool `json:"playing"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		mgr.SetPlaying(p.Playing)

	case "viewport:zoom":
		var p struct {
			PointerFraction float64 `json:"pointer_fraction"`
			Direction       int     `json:"direction"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		mgr.Zoom(p.PointerFraction, p.Direction)

	case "viewport:pan":
		var p struct {
			Start float64 `json:"start"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		mgr.Pan(p.Start)

	case "waveform:frame":
		var p struct {
			WidthPx    int `json:"width_px"`
			BarWidthPx int `json:"bar_width_px"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		client.Send("waveform:frame", mgr.Frame(p.WidthPx, p.BarWidthPx))

	case "designate:open":
		var p struct {
			SegmentIndex int `json:"segment_index"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		if err := mgr.OpenGap(p.SegmentIndex); err != nil {
			fail(err)
		}

	case "designate:range":
		var p struct {
			StartTime float64 `json:"start_time"`
			EndTime   float64 `json:"end_time"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		if err := mgr.AdjustRange(p.StartTime, p.EndTime); err != nil {
			fail(err)
		}

	case "designate:fields":
		var p struct {
			ClipType          models.ClipType `json:"clip_type"`
			BrandArtist       string          `json:"brand_artist"`
			AdvertisementName string          `json:"advertisement_name"`
		}
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			fail(err)
			return
		}
		if err := mgr.SetFields(p.ClipType, p.BrandArtist, p.AdvertisementName); err != nil {
			fail(err)
		}

	case "designate:submit":
		if err := mgr.SubmitDesignation(ctx); err != nil {
			fail(err)
		}

	case "designate:cancel":
		mgr.CancelDesignation()

	default:
		client.Send("error", map[string]string{"event": cmd.Event, "message": "unknown command"})
	}
}
