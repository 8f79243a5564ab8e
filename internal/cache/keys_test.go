package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportKey(t *testing.T) {
	assert.Equal(t, "runcreation:report:abc", ReportKey("abc"))
	assert.NotEqual(t, LatestReportKey, ReportKey("run"))
}
