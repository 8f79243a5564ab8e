package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/redis/go-redis/v9"
)

// TTL and retention
const (
	ReportTTL     = 7 * 24 * time.Hour
	RecentRunsMax = 50
)

// Keys
const (
	LatestReportKey = "runcreation:report:latest"
	RecentRunsKey   = "runcreation:runs"
)

// ErrNotFound is returned when a report is not cached
var ErrNotFound = errors.New("report not cached")

// ReportKey is the key of one run's report
func ReportKey(runID string) string {
	return fmt.Sprintf("runcreation:report:%s", runID)
}

// RedisWriter caches completed reports in Redis
type RedisWriter struct {
	client redis.Cmdable
}

// NewRedisWriter creates a new Redis writer
func NewRedisWriter(client redis.Cmdable) *RedisWriter {
	return &RedisWriter{
		client: client,
	}
}

// WriteReport stores the report as latest, under its run id, and records
// the run id in the capped recent list
func (w *RedisWriter) WriteReport(ctx context.Context, report *models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	pipe := w.client.TxPipeline()
	pipe.Set(ctx, LatestReportKey, data, 0)
	pipe.Set(ctx, ReportKey(report.RunID), data, ReportTTL)
	pipe.LPush(ctx, RecentRunsKey, report.RunID)
	pipe.LTrim(ctx, RecentRunsKey, 0, RecentRunsMax-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("caching report %s: %w", report.RunID, err)
	}
	return nil
}

// ReadLatest returns the most recent report
func (w *RedisWriter) ReadLatest(ctx context.Context) (*models.Report, error) {
	return w.read(ctx, LatestReportKey)
}

// ReadReport returns the report of one run
func (w *RedisWriter) ReadReport(ctx context.Context, runID string) (*models.Report, error) {
	return w.read(ctx, ReportKey(runID))
}

// RecentRuns lists cached run ids, newest first
func (w *RedisWriter) RecentRuns(ctx context.Context) ([]string, error) {
	return w.client.LRange(ctx, RecentRunsKey, 0, -1).Result()
}

// Ping checks the connection
func (w *RedisWriter) Ping(ctx context.Context) error {
	return w.client.Ping(ctx).Err()
}

func (w *RedisWriter) read(ctx context.Context, key string) (*models.Report, error) {
	data, err := w.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshaling report: %w", err)
	}
	return &report, nil
}
