package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/client"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
)

// Hub maintains the set of live feed clients and broadcasts completed
// reports to them
type Hub struct {
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.ReportUpdate
	register   chan *client.Client
	unregister chan *client.Client

	heartbeat time.Duration
	logger    *slog.Logger

	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex
}

// NewHub creates a hub. heartbeat <= 0 disables heartbeats.
func NewHub(heartbeat time.Duration, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*client.Client]bool),
		broadcast:  make(chan models.ReportUpdate, 16),
		register:   make(chan *client.Client),
		unregister: make(chan *client.Client),
		heartbeat:  heartbeat,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")

	var beat <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		beat = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case update := <-h.broadcast:
			h.broadcastUpdate(update)

		case now := <-beat:
			h.sendHeartbeat(now)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *client.Client) {
	h.register <- c
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *client.Client) {
	h.unregister <- c
}

// Broadcast queues a report for every subscribed client.
// Returns false when the queue is full and the update was dropped.
func (h *Hub) Broadcast(update models.ReportUpdate) bool {
	select {
	case h.broadcast <- update:
		return true
	default:
		h.logger.Warn("broadcast buffer full, dropping report", "run_id", update.RunID)
		return false
	}
}

// Sink adapts the hub to the pipeline's report fan-out
func (h *Hub) Sink() contracts.ReportSink {
	return contracts.NewSink("live-feed", func(_ context.Context, r *models.Report) error {
		h.Broadcast(models.ReportUpdate{
			RunID:       r.RunID,
			GeneratedAt: r.GeneratedAt,
			Rows:        r.Rows,
		})
		return nil
	})
}

func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	h.logger.Debug("client connected", "client_id", c.ID, "total", len(h.clients))
}

func (h *Hub) unregisterClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		h.logger.Debug("client disconnected", "client_id", c.ID, "total", len(h.clients))
	}
}

func (h *Hub) snapshot() []*client.Client {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	clients := make([]*client.Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// broadcastUpdate sends each client its narrowed view of the report
func (h *Hub) broadcastUpdate(update models.ReportUpdate) {
	sent, dropped := 0, 0
	now := time.Now()

	for _, c := range h.snapshot() {
		payload, ok := c.Narrow(update)
		if !ok {
			continue
		}
		msg := models.ServerMessage{
			Type:      models.MessageTypeReportCompleted,
			Payload:   payload,
			Timestamp: now,
		}
		if c.TrySend(msg) {
			sent++
			continue
		}
		// too slow to keep up, disconnect
		dropped++
		go h.Unregister(c)
	}

	h.metricsMu.Lock()
	h.totalMessages += int64(sent)
	h.metricsMu.Unlock()

	h.logger.Info("report broadcast", "run_id", update.RunID, "sent", sent, "dropped", dropped)
}

func (h *Hub) sendHeartbeat(now time.Time) {
	for _, c := range h.snapshot() {
		c.TrySend(models.ServerMessage{
			Type:      models.MessageTypeHeartbeat,
			Payload:   c.GetStats(),
			Timestamp: now,
		})
	}
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.metricsMu.Lock()
	totalConnections := h.totalConnections
	totalMessages := h.totalMessages
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     h.GetClientCount(),
		"total_connections":  totalConnections,
		"total_messages":     totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// shutdown closes all client connections
func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.Info("shutting down hub", "active_clients", len(h.clients))

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}
