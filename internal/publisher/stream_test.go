//go:build integration

package publisher

import (
	"context"
	"os"
	"testing"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReport(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_URL")
	if addr == "" {
		addr = "localhost:6380"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	p := NewStreamPublisher(client, 100)
	id, err := p.PublishReport(ctx, &models.Report{
		RunID: "run-1",
		Rows:  []models.TeamRow{{TeamID: 1}, {TeamID: 2}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := client.XRange(ctx, ReportStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1", entries[0].Values["run_id"])
	assert.Equal(t, "2", entries[0].Values["teams"])
	assert.Contains(t, entries[0].Values["data"], `"run_id":"run-1"`)
}
