package client_test

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/client"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockHub implements the Hub interface for testing
type MockHub struct {
	unregisteredClients []*client.Client
}

func (m *MockHub) Unregister(c *client.Client) {
	m.unregisteredClients = append(m.unregisteredClients, c)
}

func update(ids ...models.TeamID) models.ReportUpdate {
	rows := make([]models.TeamRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.TeamRow{TeamID: id})
	}
	return models.ReportUpdate{RunID: "run-1", Rows: rows}
}

func teamIDs(u models.ReportUpdate) []models.TeamID {
	ids := make([]models.TeamID, 0, len(u.Rows))
	for _, row := range u.Rows {
		ids = append(ids, row.TeamID)
	}
	return ids
}

func TestClient_Narrow(t *testing.T) {
	tests := []struct {
		name   string
		filter []models.TeamID
		want   []models.TeamID
		ok     bool
	}{
		{name: "empty filter keeps every team", filter: nil, want: []models.TeamID{1, 2, 3}, ok: true},
		{name: "single team", filter: []models.TeamID{2}, want: []models.TeamID{2}, ok: true},
		{name: "several teams keep report order", filter: []models.TeamID{3, 1}, want: []models.TeamID{1, 3}, ok: true},
		{name: "no overlap", filter: []models.TeamID{9}, want: []models.TeamID{}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := client.NewClient("test-client", nil, &MockHub{})
			c.SetFilter(models.SubscriptionFilter{Teams: tt.filter})

			got, ok := c.Narrow(update(1, 2, 3))

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, teamIDs(got))
			assert.Equal(t, "run-1", got.RunID)
		})
	}
}

func TestClient_NarrowLeavesSourceUntouched(t *testing.T) {
	c := client.NewClient("test-client", nil, &MockHub{})
	c.SetFilter(models.SubscriptionFilter{Teams: []models.TeamID{1}})

	src := update(1, 2)
	_, _ = c.Narrow(src)

	assert.Equal(t, []models.TeamID{1, 2}, teamIDs(src))
}

func TestClient_TrySend(t *testing.T) {
	c := client.NewClient("test-client", nil, &MockHub{})

	sent := 0
	for c.TrySend(models.ServerMessage{Type: models.MessageTypeHeartbeat}) {
		sent++
		require.Less(t, sent, 10000, "send buffer never filled")
	}

	assert.Equal(t, cap(c.Send), sent)
	assert.False(t, c.TrySend(models.ServerMessage{Type: models.MessageTypeHeartbeat}))
}

func TestClient_HandleMessage(t *testing.T) {
	t.Run("subscribe sets the team filter", func(t *testing.T) {
		c := client.NewClient("test-client", nil, &MockHub{})

		c.HandleMessage(models.ClientMessage{
			Type:    models.MessageTypeSubscribe,
			Payload: map[string]interface{}{"teams": []interface{}{2.0}},
		})

		got, ok := c.Narrow(update(1, 2))
		assert.True(t, ok)
		assert.Equal(t, []models.TeamID{2}, teamIDs(got))
		assert.Empty(t, c.Send)
	})

	t.Run("unsubscribe clears the filter", func(t *testing.T) {
		c := client.NewClient("test-client", nil, &MockHub{})
		c.SetFilter(models.SubscriptionFilter{Teams: []models.TeamID{2}})

		c.HandleMessage(models.ClientMessage{Type: models.MessageTypeUnsubscribe})

		got, _ := c.Narrow(update(1, 2))
		assert.Equal(t, []models.TeamID{1, 2}, teamIDs(got))
	})

	t.Run("bad filter payload", func(t *testing.T) {
		c := client.NewClient("test-client", nil, &MockHub{})

		c.HandleMessage(models.ClientMessage{
			Type:    models.MessageTypeSubscribe,
			Payload: map[string]interface{}{"teams": "all"},
		})

		require.Len(t, c.Send, 1)
		msg := <-c.Send
		assert.Equal(t, models.MessageTypeError, msg.Type)
		assert.Equal(t, "invalid_filter", msg.Payload.(models.ErrorMessage).Code)
	})

	t.Run("heartbeat echoes stats", func(t *testing.T) {
		c := client.NewClient("test-client", nil, &MockHub{})

		c.HandleMessage(models.ClientMessage{Type: models.MessageTypeHeartbeat})

		require.Len(t, c.Send, 1)
		msg := <-c.Send
		assert.Equal(t, models.MessageTypeHeartbeat, msg.Type)
		assert.Equal(t, "test-client", msg.Payload.(models.ConnectionStats).ClientID)
	})

	t.Run("unknown type", func(t *testing.T) {
		c := client.NewClient("test-client", nil, &MockHub{})

		c.HandleMessage(models.ClientMessage{Type: "replay"})

		require.Len(t, c.Send, 1)
		msg := <-c.Send
		assert.Equal(t, models.MessageTypeError, msg.Type)
		assert.Equal(t, "unknown message type: replay", msg.Payload.(models.ErrorMessage).Message)
	})
}

func TestClient_GetStats(t *testing.T) {
	c := client.NewClient("test-client", nil, &MockHub{})

	stats := c.GetStats()

	assert.Equal(t, "test-client", stats.ClientID)
	assert.Zero(t, stats.MessagesSent)
	assert.Equal(t, cap(c.Send), stats.BufferSize)
	assert.False(t, stats.ConnectedAt.IsZero())
}
