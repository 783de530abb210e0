package jwkset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthReporter_ReportsHealthyOnSuccess(t *testing.T) {
	inner := &countingSource{set: newTestSet(t, "a")}
	reporter := NewHealthReporter("test", inner, NewEventBus())

	_, err := reporter.Get(NoRefresh(), 5, context.Background())
	assert.NoError(t, err)

	report := reporter.LastReport()
	assert.Equal(t, Healthy, report.Status)
	assert.Equal(t, int64(5), report.Timestamp)
}

func TestHealthReporter_ReportsUnhealthyOnFailure(t *testing.T) {
	inner := &toggleSource{fail: true}
	reporter := NewHealthReporter("test", inner, NewEventBus())

	_, err := reporter.Get(NoRefresh(), 5, context.Background())
	assert.Error(t, err)

	report := reporter.LastReport()
	assert.Equal(t, NotHealthy, report.Status)
	assert.EqualError(t, report.Err, "upstream down")
}

func TestHealthReporter_PublishesReportEvent(t *testing.T) {
	inner := &countingSource{set: newTestSet(t, "a")}
	bus := NewEventBus()
	var received Event
	bus.Subscribe(func(ev Event) { received = ev })

	reporter := NewHealthReporter("test", inner, bus)
	_, _ = reporter.Get(NoRefresh(), 0, context.Background())

	report, ok := received.(HealthReport)
	assert.True(t, ok)
	assert.Equal(t, Healthy, report.Status)
}
