package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReport(t *testing.T) {
	report, err := DecodeReport(map[string]interface{}{
		"data":   `{"run_id":"run-1","generated_at":"2024-09-30T12:00:00Z","rows":[{"team_id":3,"team_display":"River City"}]}`,
		"run_id": "run-1",
		"teams":  "1",
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "River City", report.Rows[0].TeamDisplay)
}

func TestDecodeReport_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
		errMsg string
	}{
		{name: "no data", values: map[string]interface{}{"run_id": "run-1"}, errMsg: "missing data field"},
		{name: "not json", values: map[string]interface{}{"data": "{"}, errMsg: "parse report"},
		{name: "no run id", values: map[string]interface{}{"data": `{"rows":[]}`}, errMsg: "no run_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeReport(tt.values)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
