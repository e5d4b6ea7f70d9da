package promobs

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/crewgraph/providers/observability"
)

type recordingLogger struct {
	observability.Provider
	messages []string
}

func (logger *recordingLogger) Warn(_ context.Context, msg string, _ ...observability.Attribute) {
	logger.messages = append(logger.messages, msg)
}

func TestCounter_LabelsFromAttributes(t *testing.T) {
	registry := prometheus.NewRegistry()
	observer := New(registry, nil, WithLabels(observability.AttrStatus))
	ctx := context.Background()

	observer.Counter(observability.MetricTaskCount).Add(ctx, 1, observability.String(observability.AttrStatus, "success"))
	observer.Counter(observability.MetricTaskCount).Add(ctx, 2, observability.String(observability.AttrStatus, "success"))
	observer.Counter(observability.MetricTaskCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "failure"),
		observability.String(observability.AttrEdgeID, "ignored"))

	counter := observer.Counter(observability.MetricTaskCount).(*counter)
	assert.Equal(t, 3.0, testutil.ToFloat64(counter.vec.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(counter.vec.WithLabelValues("failure")))
}

func TestCounter_NegativeDeltaIgnored(t *testing.T) {
	registry := prometheus.NewRegistry()
	observer := New(registry, nil, WithLabels())

	observer.Counter("runs").Add(context.Background(), -4)

	counter := observer.Counter("runs").(*counter)
	assert.Equal(t, 0.0, testutil.ToFloat64(counter.vec.WithLabelValues()))
}

func TestHistogram_RegisteredUnderSanitizedName(t *testing.T) {
	registry := prometheus.NewRegistry()
	observer := New(registry, nil, WithNamespace("test"))

	observer.Histogram(observability.MetricTaskDuration).Record(context.Background(), 0.42,
		observability.String(observability.AttrStatus, "success"))

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "test_crewgraph_task_duration", families[0].GetName())
	assert.Equal(t, uint64(1), families[0].GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestObserver_SharedRegistryReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := New(registry, nil)
	second := New(registry, nil)

	first.Counter(observability.MetricSummaryCount).Add(context.Background(), 1)
	second.Counter(observability.MetricSummaryCount).Add(context.Background(), 1)

	assert.Equal(t, 1, testutil.CollectAndCount(registry, "crewgraph_summary_count_total"))
}

func TestObserver_DelegatesLogging(t *testing.T) {
	delegate := &recordingLogger{}
	observer := New(prometheus.NewRegistry(), delegate)

	observer.Warn(context.Background(), "binding failed")

	assert.Equal(t, []string{"binding failed"}, delegate.messages)
}

func TestObserver_NilDelegateSpan(t *testing.T) {
	observer := New(prometheus.NewRegistry(), nil)

	ctx, span := observer.StartSpan(context.Background(), observability.SpanCrewRun)
	span.SetStatus(observability.StatusOK, "")
	span.End()

	assert.NotNil(t, observability.SpanFromContext(ctx))
}

func TestMetricName(t *testing.T) {
	assert.Equal(t, "crewgraph_run_duration", MetricName(observability.MetricRunDuration))
	assert.Equal(t, []string{"crew_summary_cached"}, LabelNames([]string{observability.AttrSummaryCached}))
}
