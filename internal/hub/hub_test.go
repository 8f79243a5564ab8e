package hub

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/client"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func startHub(t *testing.T, heartbeat time.Duration) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub(heartbeat, quietLogger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h, cancel
}

func receive(t *testing.T, c *client.Client) models.ServerMessage {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return models.ServerMessage{}
	}
}

func report() *models.Report {
	return &models.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 9, 30, 12, 0, 0, 0, time.UTC),
		Rows:        []models.TeamRow{{TeamID: 1}, {TeamID: 2}},
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h, _ := startHub(t, 0)
	c := client.NewClient("c1", nil, h)

	h.Register(c)
	assert.Eventually(t, func() bool { return h.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.Unregister(c)
	assert.Eventually(t, func() bool { return h.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_SinkBroadcastsNarrowedReport(t *testing.T) {
	h, _ := startHub(t, 0)

	all := client.NewClient("all", nil, h)
	metro := client.NewClient("metro", nil, h)
	metro.SetFilter(models.SubscriptionFilter{Teams: []models.TeamID{2}})
	other := client.NewClient("other", nil, h)
	other.SetFilter(models.SubscriptionFilter{Teams: []models.TeamID{7}})
	h.Register(all)
	h.Register(metro)
	h.Register(other)

	require.NoError(t, h.Sink().Deliver(context.Background(), report()))

	msg := receive(t, all)
	assert.Equal(t, models.MessageTypeReportCompleted, msg.Type)
	got := msg.Payload.(models.ReportUpdate)
	assert.Equal(t, "run-1", got.RunID)
	assert.Len(t, got.Rows, 2)

	msg = receive(t, metro)
	got = msg.Payload.(models.ReportUpdate)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, models.TeamID(2), got.Rows[0].TeamID)

	assert.Eventually(t, func() bool {
		return h.GetMetrics()["total_messages"].(int64) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, other.Send)
	assert.Equal(t, "live-feed", h.Sink().Name())
}

func TestHub_Heartbeat(t *testing.T) {
	h, _ := startHub(t, 20*time.Millisecond)
	c := client.NewClient("c1", nil, h)
	h.Register(c)

	msg := receive(t, c)

	assert.Equal(t, models.MessageTypeHeartbeat, msg.Type)
	assert.Equal(t, "c1", msg.Payload.(models.ConnectionStats).ClientID)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h, cancel := startHub(t, 0)
	c := client.NewClient("c1", nil, h)
	h.Register(c)

	cancel()

	select {
	case _, open := <-c.Send:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("client not closed on shutdown")
	}
}

func TestHub_BroadcastDropsWhenFull(t *testing.T) {
	h := NewHub(0, quietLogger) // not running

	for i := 0; i < cap(h.broadcast); i++ {
		require.True(t, h.Broadcast(models.ReportUpdate{}))
	}
	assert.False(t, h.Broadcast(models.ReportUpdate{RunID: "late"}))
	assert.Equal(t, cap(h.broadcast), h.GetMetrics()["broadcast_usage"])
}
