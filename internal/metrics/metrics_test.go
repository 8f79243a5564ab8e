package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/attribution"
	fixtures "github.com/XavierBriggs/fortuna/services/run-creation/internal/testutil"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ attribution.Observer = (*Metrics)(nil)

func TestMetrics_ObserveEngine(t *testing.T) {
	m := New()

	engine := attribution.New(attribution.NameMap{"atlanta": 1}, attribution.WithObserver(m))
	engine.Scan(fixtures.Lines(fixtures.GameOneID,
		"Top of the 1st - Atlanta batting",
		"Smith: singles to left",
		"Bottom of the 1st - Nowhere batting",
	))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.linesClassified.WithLabelValues(attribution.KindHalfInningHeader.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.linesClassified.WithLabelValues(attribution.KindTerminalPlay.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unresolvedHeaders))
}

func TestMetrics_ObserveScan(t *testing.T) {
	m := New()

	m.ObserveScan(200*time.Millisecond, nil)
	m.ObserveScan(time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.scansCompleted.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scansCompleted.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.scanDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveLine(attribution.KindHomeRun)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `run_creation_lines_classified_total{kind="home_run"} 1`)
	assert.Contains(t, string(body), `run_creation_lines_classified_total{kind="continuation"} 0`)
}
