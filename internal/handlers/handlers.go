package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/cache"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/client"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/hub"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the cors middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context) (*models.Report, error)
}

// Pinger is a dependency checked by /health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	reports contracts.ReportReader
	runner  Runner
	hub     *hub.Hub
	deps    map[string]Pinger
	ctx     context.Context
	logger  *slog.Logger

	scanMu sync.Mutex
}

// NewHandler creates a handler. ctx bounds the lifetime of websocket pumps;
// runner and feed may be nil to disable scans and the live feed.
func NewHandler(ctx context.Context, reports contracts.ReportReader, runner Runner, feed *hub.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reports: reports,
		runner:  runner,
		hub:     feed,
		deps:    make(map[string]Pinger),
		ctx:     ctx,
		logger:  logger,
	}
}

// AddDependency registers a backend checked by HealthCheck
func (h *Handler) AddDependency(name string, p Pinger) {
	h.deps[name] = p
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.respondError(w, http.StatusServiceUnavailable, name+" unhealthy", err)
			return
		}
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "run-creation",
	}
	if h.hub != nil {
		health["active_clients"] = h.hub.GetClientCount()
	}
	respondJSON(w, http.StatusOK, health)
}

// GetLatestReport returns the most recent run
func (h *Handler) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rep, err := h.reports.ReadLatest(ctx)
	if err != nil {
		h.respondReadError(w, "no report available yet", err)
		return
	}

	respondJSON(w, http.StatusOK, rep)
}

// GetReport returns one run by id
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runID := chi.URLParam(r, "runID")
	if runID == "" {
		h.respondError(w, http.StatusBadRequest, "run_id is required", nil)
		return
	}

	rep, err := h.reports.ReadReport(ctx, runID)
	if err != nil {
		h.respondReadError(w, "report not found", err)
		return
	}

	respondJSON(w, http.StatusOK, rep)
}

// GetReports lists recent run ids, newest first
func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runs, err := h.reports.RecentRuns(ctx)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve runs", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetTeam returns one team's row from the latest run
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := strconv.Atoi(chi.URLParam(r, "teamID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "team_id must be an integer", nil)
		return
	}

	rep, err := h.reports.ReadLatest(ctx)
	if err != nil {
		h.respondReadError(w, "no report available yet", err)
		return
	}

	row, ok := rep.Row(models.TeamID(id))
	if !ok {
		h.respondError(w, http.StatusNotFound, "team not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       rep.RunID,
		"generated_at": rep.GeneratedAt,
		"team":         row,
	})
}

// CreateScan runs the pipeline synchronously. Only one scan runs at a time.
func (h *Handler) CreateScan(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		h.respondError(w, http.StatusNotImplemented, "scans are disabled", nil)
		return
	}
	if !h.scanMu.TryLock() {
		h.respondError(w, http.StatusConflict, "a scan is already running", nil)
		return
	}
	defer h.scanMu.Unlock()

	rep, err := h.runner.Run(r.Context())
	if rep == nil {
		h.respondError(w, http.StatusInternalServerError, "scan failed", err)
		return
	}

	body := map[string]interface{}{
		"run_id":       rep.RunID,
		"generated_at": rep.GeneratedAt,
		"teams":        len(rep.Rows),
		"sources":      rep.Sources,
	}
	if err != nil {
		// report built but some sink failed
		h.logger.Warn("scan delivered partially", "run_id", rep.RunID, "error", err)
		body["warning"] = err.Error()
	}
	respondJSON(w, http.StatusCreated, body)
}

// HandleWebSocket upgrades HTTP connections to the live report feed
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.respondError(w, http.StatusNotImplemented, "live feed is disabled", nil)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := client.NewClient(uuid.NewString(), conn, h.hub)
	h.hub.Register(c)

	// pumps outlive the request, so they use the handler context
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	h.logger.Debug("websocket connection established", "client_id", c.ID)
}

// GetFeedStats returns live feed metrics
func (h *Handler) GetFeedStats(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.respondError(w, http.StatusNotImplemented, "live feed is disabled", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.hub.GetMetrics())
}

func (h *Handler) respondReadError(w http.ResponseWriter, notFound string, err error) {
	if errors.Is(err, cache.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, notFound, nil)
		return
	}
	h.respondError(w, http.StatusInternalServerError, "failed to retrieve report", err)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.Error(message, "status", status, "error", err)
	}

	respondJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
