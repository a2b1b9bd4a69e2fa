package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRecorder struct{ n int }

func (c *countingRecorder) RecordSourceOutcome(string, string, time.Duration) { c.n++ }

func TestSourceHealth(t *testing.T) {
	next := &countingRecorder{}
	sh := NewSourceHealth(next)
	assert.Equal(t, StatusUnknown, sh.Check().Status)

	sh.RecordSourceOutcome("sales", "ok", time.Millisecond)
	sh.RecordSourceOutcome("traffic", "empty", time.Millisecond)
	assert.Equal(t, StatusHealthy, sh.Check().Status)

	sh.RecordSourceOutcome("traffic", "failed", time.Millisecond)
	degraded := sh.Check()
	assert.Equal(t, StatusDegraded, degraded.Status)
	assert.Equal(t, []string{"traffic"}, degraded.Details["failed"])

	sh.RecordSourceOutcome("sales", "failed", time.Millisecond)
	assert.Equal(t, StatusUnhealthy, sh.Check().Status)
	assert.Equal(t, 4, next.n)
}

func TestHealthCheckerFoldsComponents(t *testing.T) {
	hc := NewHealthChecker(50 * time.Millisecond)
	hc.Register("a", func() HealthStatus { return NewHealthStatus(StatusHealthy, "") })
	assert.Equal(t, StatusHealthy, hc.Check(context.Background()).Status)

	hc.Register("b", func() HealthStatus { return NewHealthStatus(StatusDegraded, "") })
	report := hc.Check(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "1/2 components degraded", report.Message)

	hc.Register("slow", func() HealthStatus {
		time.Sleep(time.Second)
		return NewHealthStatus(StatusHealthy, "")
	})
	report = hc.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, "Health check timed out", report.Components["slow"].Message)
}
