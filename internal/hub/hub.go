// Package hub relays game frames between the authoritative state and every
// connected browser client.
package hub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	"snakebot/internal/ai/tools"
	"snakebot/internal/config"
	"snakebot/internal/game"
	"snakebot/internal/logger"
	"snakebot/internal/metrics"
)

type Config struct {
	// NavDelay is how long auto navigation waits after a report before steering.
	NavDelay           time.Duration
	WriteTimeout       time.Duration
	MaxMessageSize     int64
	MaxFramesPerSecond float64
	FrameBurst         int
	AllowedOrigins     []string
}

func DefaultConfig() Config {
	return Config{
		NavDelay:           500 * time.Millisecond,
		WriteTimeout:       5 * time.Second,
		MaxMessageSize:     1 << 20,
		MaxFramesPerSecond: 50,
		FrameBurst:         100,
		AllowedOrigins:     []string{"*"},
	}
}

// Hub owns the connection set. The set is touched only under mu; game state has
// its own lock, so frame handling for different clients may run in parallel.
type Hub struct {
	mu        sync.RWMutex
	endpoints map[string]Endpoint

	state   *game.State
	cfg     Config
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(state *game.State, cfg Config, m *metrics.Metrics) *Hub {
	if m == nil {
		m = metrics.New()
	}
	return &Hub{
		endpoints: make(map[string]Endpoint),
		state:     state,
		cfg:       cfg,
		metrics:   m,
		now:       time.Now,
	}
}

// Add registers an endpoint for broadcasts.
func (h *Hub) Add(ep Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.endpoints[ep.ID()]; exists {
		return
	}
	h.endpoints[ep.ID()] = ep
	h.metrics.ActiveConnections.Inc()
	h.metrics.ConnectionsTotal.Inc()
	logger.Infof("Game client %s connected (%d total)", ep.ID(), len(h.endpoints))
}

// Remove drops an endpoint. Removing an unknown id is a no-op.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.endpoints[id]; !exists {
		return
	}
	delete(h.endpoints, id)
	h.metrics.ActiveConnections.Dec()
	logger.Infof("Game client %s disconnected (%d left)", id, len(h.endpoints))
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.endpoints)
}

func (h *Hub) members() []Endpoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Endpoint, 0, len(h.endpoints))
	for _, ep := range h.endpoints {
		out = append(out, ep)
	}
	return out
}

// Broadcast sends frame to every connected client at most once, in parallel.
// A failing recipient is logged and skipped; it never affects the others or the caller.
// Returns how many clients the frame reached.
func (h *Hub) Broadcast(ctx context.Context, frame game.Outbound) int {
	data, err := frame.Marshal()
	if err != nil {
		logger.Errorf("Failed to encode %s frame: %v", frame.Type, err)
		return 0
	}

	var (
		wg        sync.WaitGroup
		delivered atomic.Int32
	)
	for _, ep := range h.members() {
		wg.Add(1)
		go func(ep Endpoint) {
			defer wg.Done()
			if err := h.send(ctx, ep, data); err != nil {
				h.metrics.SendFailures.Inc()
				logger.Warnf("Failed to send %s frame to %s: %v", frame.Type, ep.ID(), err)
				return
			}
			delivered.Add(1)
			h.metrics.FramesSent.WithLabelValues(string(frame.Type)).Inc()
		}(ep)
	}
	wg.Wait()

	return int(delivered.Load())
}

func (h *Hub) send(ctx context.Context, ep Endpoint, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panicked: %v", r)
		}
	}()

	if h.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.WriteTimeout)
		defer cancel()
	}
	return ep.Send(ctx, data)
}

// HandleFrame processes one inbound frame. Malformed frames are logged and dropped
// without touching the game state. A state report, when auto navigation is on, is
// followed by a steering decision broadcast to every client.
func (h *Hub) HandleFrame(ctx context.Context, data []byte) {
	logger.Framef("rev from snake: %s", tools.TruncateString(string(data), 300))

	in, err := game.ParseInbound(data)
	if err != nil {
		h.metrics.FramesDropped.WithLabelValues("malformed").Inc()
		logger.Warnf("Discarding frame: %v", err)
		return
	}

	if in.Type != game.FrameState {
		h.metrics.FramesDropped.WithLabelValues("unsupported").Inc()
		logger.Debugf("Ignoring %q frame", in.Type)
		return
	}

	if err := h.state.ApplyReport(*in.Report); err != nil {
		h.metrics.FramesDropped.WithLabelValues("invalid_report").Inc()
		logger.Warnf("Discarding state report: %v", err)
		return
	}
	h.metrics.FramesReceived.WithLabelValues(string(in.Type)).Inc()

	if !h.state.AutoNavigate() {
		return
	}
	h.steer(ctx)
}

func (h *Hub) steer(ctx context.Context) {
	if h.cfg.NavDelay > 0 {
		timer := time.NewTimer(h.cfg.NavDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	snap := h.state.Snapshot()
	// end_game may have landed while we waited
	if !snap.AutoNavigate {
		return
	}

	direction := game.ChooseDirection(snap)
	h.state.SetDirection(direction)
	h.metrics.NavigationDecisions.WithLabelValues(direction.String()).Inc()
	logger.Debugf("Auto navigation: %s -> %s", snap.Direction, direction)

	h.Broadcast(ctx, game.DirectionFrame(direction, h.now()))
}

// ServeHTTP upgrades a game client and reads its frames until it goes away.
// Frames from one client are handled strictly in arrival order.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.AllowedOrigins,
	})
	if err != nil {
		logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	if h.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageSize)
	}

	ep := newSocketEndpoint(conn)
	h.Add(ep)
	defer func() {
		h.Remove(ep.ID())
		_ = ep.Close()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(h.cfg.MaxFramesPerSecond), h.cfg.FrameBurst)

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			h.logReadError(ep.ID(), err)
			return
		}

		if msgType != websocket.MessageText {
			h.metrics.FramesDropped.WithLabelValues("binary").Inc()
			logger.Warnf("Dropping binary frame from %s", ep.ID())
			continue
		}
		if h.cfg.MaxFramesPerSecond > 0 && !limiter.Allow() {
			h.metrics.FramesDropped.WithLabelValues("rate_limited").Inc()
			continue
		}

		h.HandleFrame(ctx, data)
	}
}

func (h *Hub) logReadError(id string, err error) {
	status := websocket.CloseStatus(err)
	switch {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		logger.Debugf("Client %s closed the connection", id)
	case errors.Is(err, context.Canceled):
		logger.Debugf("Stopped reading from %s", id)
	default:
		logger.Warnf("Read from %s failed: %v", id, err)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	for _, ep := range h.members() {
		h.Remove(ep.ID())
		if err := ep.Close(); err != nil {
			logger.Debugf("Closing %s: %v", ep.ID(), err)
		}
	}
}

// ConfigFrom maps the file configuration onto hub settings.
func ConfigFrom(hc config.HubConfig, gc config.GameConfig) Config {
	return Config{
		NavDelay:           gc.NavDelay.Duration,
		WriteTimeout:       hc.WriteTimeout.Duration,
		MaxMessageSize:     hc.MaxMessageSize,
		MaxFramesPerSecond: hc.MaxFramesPerSecond,
		FrameBurst:         hc.FrameBurst,
		AllowedOrigins:     hc.AllowedOrigins,
	}
}
