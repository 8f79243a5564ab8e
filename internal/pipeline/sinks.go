package pipeline

import (
	"context"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/cache"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/db"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
)

// CacheSink stores reports in Redis
func CacheSink(w *cache.RedisWriter) contracts.ReportSink {
	return contracts.NewSink("redis-cache", w.WriteReport)
}

// StreamSink appends reports to the Redis stream
func StreamSink(p *publisher.StreamPublisher) contracts.ReportSink {
	return contracts.NewSink("redis-stream", func(ctx context.Context, r *models.Report) error {
		_, err := p.PublishReport(ctx, r)
		return err
	})
}

// StoreSink records run tallies in Postgres
func StoreSink(s db.TallyStore) contracts.ReportSink {
	return contracts.NewSink("postgres", s.SaveRun)
}
