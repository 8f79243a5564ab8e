package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Batch size for reading messages
	batchSize = 20

	// Block duration when waiting for new messages
	blockDuration = 1 * time.Second

	// Pause after a failed read
	errorBackoff = 1 * time.Second
)

// Config names the consumer group and member
type Config struct {
	Group      string
	ConsumerID string
}

// StreamConsumer reads completed reports from the report stream and hands
// them to a sink, typically the live feed
type StreamConsumer struct {
	redis  redis.Cmdable
	sink   contracts.ReportSink
	stream string
	cfg    Config
	logger *slog.Logger
}

// NewStreamConsumer creates a consumer of publisher.ReportStream
func NewStreamConsumer(client redis.Cmdable, sink contracts.ReportSink, cfg Config, logger *slog.Logger) *StreamConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamConsumer{
		redis:  client,
		sink:   sink,
		stream: publisher.ReportStream,
		cfg:    cfg,
		logger: logger,
	}
}

// Start consumes until ctx is cancelled
func (sc *StreamConsumer) Start(ctx context.Context) error {
	if err := sc.createConsumerGroup(ctx); err != nil {
		return err
	}
	sc.logger.Info("stream consumer started", "stream", sc.stream, "group", sc.cfg.Group)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := sc.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			sc.logger.Warn("stream read error", "stream", sc.stream, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(errorBackoff):
			}
		}
	}
}

// createConsumerGroup starts new groups at the stream tail so history is not
// replayed to live clients
func (sc *StreamConsumer) createConsumerGroup(ctx context.Context) error {
	err := sc.redis.XGroupCreateMkStream(ctx, sc.stream, sc.cfg.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", sc.cfg.Group, err)
	}
	return nil
}

// poll reads one batch and returns how many entries were handled
func (sc *StreamConsumer) poll(ctx context.Context) (int, error) {
	streams, err := sc.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    sc.cfg.Group,
		Consumer: sc.cfg.ConsumerID,
		Streams:  []string{sc.stream, ">"},
		Count:    batchSize,
		Block:    blockDuration,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for _, s := range streams {
		for _, msg := range s.Messages {
			sc.processMessage(ctx, msg)
			n++
		}
	}
	return n, nil
}

// processMessage delivers one entry. Malformed entries are acked and dropped.
func (sc *StreamConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	report, err := DecodeReport(msg.Values)
	if err != nil {
		sc.logger.Warn("dropping malformed report entry", "id", msg.ID, "error", err)
		sc.ackMessage(ctx, msg.ID)
		return
	}

	if err := sc.sink.Deliver(ctx, report); err != nil {
		// left pending for redelivery
		sc.logger.Error("report delivery failed", "sink", sc.sink.Name(), "run_id", report.RunID, "error", err)
		return
	}

	sc.logger.Debug("report forwarded", "sink", sc.sink.Name(), "run_id", report.RunID)
	sc.ackMessage(ctx, msg.ID)
}

func (sc *StreamConsumer) ackMessage(ctx context.Context, id string) {
	if err := sc.redis.XAck(ctx, sc.stream, sc.cfg.Group, id).Err(); err != nil {
		sc.logger.Warn("failed to ack message", "id", id, "error", err)
	}
}

// DecodeReport parses the "data" field written by the stream publisher
func DecodeReport(values map[string]interface{}) (*models.Report, error) {
	data, ok := values["data"].(string)
	if !ok {
		return nil, errors.New("missing data field")
	}

	var report models.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if report.RunID == "" {
		return nil, errors.New("report has no run_id")
	}
	return &report, nil
}
