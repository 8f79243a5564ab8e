package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/cache"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/hub"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeReader struct {
	reports map[string]*models.Report
	latest  string
	runs    []string
	err     error
}

func (f *fakeReader) ReadLatest(context.Context) (*models.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.latest == "" {
		return nil, cache.ErrNotFound
	}
	return f.reports[f.latest], nil
}

func (f *fakeReader) ReadReport(_ context.Context, runID string) (*models.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	rep, ok := f.reports[runID]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return rep, nil
}

func (f *fakeReader) RecentRuns(context.Context) ([]string, error) {
	return f.runs, f.err
}

type fakeRunner struct {
	report  *models.Report
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeRunner) Run(context.Context) (*models.Report, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	return f.report, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func sampleReport(runID string) *models.Report {
	return &models.Report{
		RunID:       runID,
		GeneratedAt: time.Date(2024, 9, 30, 12, 0, 0, 0, time.UTC),
		Sources:     map[string]string{"record": "team_record.csv"},
		Rows: []models.TeamRow{
			{TeamID: testutil.AtlantaID, TeamDisplay: "Atlanta", PctRunsViaHR: testutil.Float(0.4)},
			{TeamID: testutil.MetroID, TeamDisplay: "Metro"},
		},
	}
}

func newReader() *fakeReader {
	return &fakeReader{
		reports: map[string]*models.Report{"run-2": sampleReport("run-2"), "run-1": sampleReport("run-1")},
		latest:  "run-2",
		runs:    []string{"run-2", "run-1"},
	}
}

func newServer(t *testing.T, h *Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(h, RouterOptions{
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "run_creation_scans_completed_total 1\n")
		}),
		Logger: quietLogger,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	h := NewHandler(context.Background(), newReader(), nil, nil, quietLogger)
	h.AddDependency("redis", fakePinger{})
	srv := newServer(t, h)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/health", &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "run-creation", body["service"])

	h.AddDependency("postgres", fakePinger{err: errors.New("connection refused")})
	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.URL+"/health", &errResp))
	assert.Equal(t, "postgres unhealthy", errResp.Message)
	assert.Equal(t, http.StatusServiceUnavailable, errResp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, NewHandler(context.Background(), newReader(), nil, nil, quietLogger))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "run_creation_scans_completed_total")
}

func TestGetReports(t *testing.T) {
	srv := newServer(t, NewHandler(context.Background(), newReader(), nil, nil, quietLogger))

	t.Run("latest", func(t *testing.T) {
		var rep models.Report
		assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/reports/latest", &rep))
		assert.Equal(t, "run-2", rep.RunID)
		assert.Len(t, rep.Rows, 2)
	})

	t.Run("by id", func(t *testing.T) {
		var rep models.Report
		assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/reports/run-1", &rep))
		assert.Equal(t, "run-1", rep.RunID)
	})

	t.Run("unknown id", func(t *testing.T) {
		var errResp models.ErrorResponse
		assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/v1/reports/nope", &errResp))
		assert.Equal(t, "report not found", errResp.Message)
	})

	t.Run("recent", func(t *testing.T) {
		var body struct {
			Runs  []string `json:"runs"`
			Count int      `json:"count"`
		}
		assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/reports", &body))
		assert.Equal(t, []string{"run-2", "run-1"}, body.Runs)
		assert.Equal(t, 2, body.Count)
	})
}

func TestGetLatestReport_Empty(t *testing.T) {
	srv := newServer(t, NewHandler(context.Background(), &fakeReader{}, nil, nil, quietLogger))

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/v1/reports/latest", &errResp))
	assert.Equal(t, "no report available yet", errResp.Message)
}

func TestGetLatestReport_BackendError(t *testing.T) {
	srv := newServer(t, NewHandler(context.Background(), &fakeReader{err: errors.New("i/o timeout")}, nil, nil, quietLogger))

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusInternalServerError, get(t, srv.URL+"/api/v1/reports/latest", &errResp))
	assert.Equal(t, "failed to retrieve report", errResp.Message)
}

func TestGetTeam(t *testing.T) {
	srv := newServer(t, NewHandler(context.Background(), newReader(), nil, nil, quietLogger))

	var body struct {
		RunID string         `json:"run_id"`
		Team  models.TeamRow `json:"team"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/teams/1", &body))
	assert.Equal(t, "run-2", body.RunID)
	assert.Equal(t, "Atlanta", body.Team.TeamDisplay)
	require.NotNil(t, body.Team.PctRunsViaHR)
	assert.Equal(t, 0.4, *body.Team.PctRunsViaHR)

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/v1/teams/42", &errResp))
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/v1/teams/atl", &errResp))
	assert.Equal(t, "team_id must be an integer", errResp.Message)
}

func post(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestCreateScan(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		runner := &fakeRunner{report: sampleReport("run-3")}
		srv := newServer(t, NewHandler(context.Background(), newReader(), runner, nil, quietLogger))

		var body map[string]interface{}
		assert.Equal(t, http.StatusCreated, post(t, srv.URL+"/api/v1/scans", &body))
		assert.Equal(t, "run-3", body["run_id"])
		assert.Equal(t, 2.0, body["teams"])
		assert.NotContains(t, body, "warning")
	})

	t.Run("sink failure is a warning", func(t *testing.T) {
		runner := &fakeRunner{report: sampleReport("run-3"), err: errors.New("redis-cache: connection refused")}
		srv := newServer(t, NewHandler(context.Background(), newReader(), runner, nil, quietLogger))

		var body map[string]interface{}
		assert.Equal(t, http.StatusCreated, post(t, srv.URL+"/api/v1/scans", &body))
		assert.Equal(t, "redis-cache: connection refused", body["warning"])
	})

	t.Run("build failure", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("no team record file found")}
		srv := newServer(t, NewHandler(context.Background(), newReader(), runner, nil, quietLogger))

		var errResp models.ErrorResponse
		assert.Equal(t, http.StatusInternalServerError, post(t, srv.URL+"/api/v1/scans", &errResp))
		assert.Equal(t, "scan failed", errResp.Message)
	})

	t.Run("disabled", func(t *testing.T) {
		srv := newServer(t, NewHandler(context.Background(), newReader(), nil, nil, quietLogger))
		assert.Equal(t, http.StatusNotImplemented, post(t, srv.URL+"/api/v1/scans", nil))
	})

	t.Run("one at a time", func(t *testing.T) {
		runner := &fakeRunner{
			report:  sampleReport("run-3"),
			started: make(chan struct{}),
			release: make(chan struct{}),
		}
		srv := newServer(t, NewHandler(context.Background(), newReader(), runner, nil, quietLogger))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp, err := http.Post(srv.URL+"/api/v1/scans", "application/json", nil); err == nil {
				resp.Body.Close()
			}
		}()
		<-runner.started

		assert.Equal(t, http.StatusConflict, post(t, srv.URL+"/api/v1/scans", nil))

		close(runner.release)
		wg.Wait()
	})
}

func TestWebSocketFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := hub.NewHub(0, quietLogger)
	go feed.Run(ctx)

	srv := newServer(t, NewHandler(ctx, newReader(), nil, feed, quietLogger))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return feed.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"teams": []int{2}},
	}))
	// the subscription is applied by the read pump; a heartbeat round trip
	// confirms it was processed
	require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: models.MessageTypeHeartbeat}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var beat struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&beat))
	require.Equal(t, models.MessageTypeHeartbeat, beat.Type)

	require.NoError(t, feed.Sink().Deliver(ctx, sampleReport("run-9")))

	var msg struct {
		Type    string              `json:"type"`
		Payload models.ReportUpdate `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, models.MessageTypeReportCompleted, msg.Type)
	assert.Equal(t, "run-9", msg.Payload.RunID)
	require.Len(t, msg.Payload.Rows, 1)
	assert.Equal(t, testutil.MetroID, msg.Payload.Rows[0].TeamID)
}

func TestWebSocketFeed_Disabled(t *testing.T) {
	srv := newServer(t, NewHandler(context.Background(), newReader(), nil, nil, quietLogger))

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusNotImplemented, get(t, srv.URL+"/ws", &errResp))
	assert.Equal(t, http.StatusNotImplemented, get(t, srv.URL+"/api/v1/feed/stats", &errResp))
}
