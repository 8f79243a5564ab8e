package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/redis/go-redis/v9"
)

// ReportStream carries one entry per completed run
const ReportStream = "runcreation.reports"

// StreamPublisher publishes completed reports to a Redis stream
type StreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewStreamPublisher creates a new stream publisher. maxLen <= 0 keeps the
// stream uncapped.
func NewStreamPublisher(client redis.Cmdable, maxLen int64) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		stream: ReportStream,
		maxLen: maxLen,
	}
}

// PublishReport appends the report to the stream and returns the entry id
func (p *StreamPublisher) PublishReport(ctx context.Context, report *models.Report) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":   string(data),
			"run_id": report.RunID,
			"teams":  len(report.Rows),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("publishing report %s: %w", report.RunID, err)
	}
	return id, nil
}
