package ingest

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func findMetric(mf *dto.MetricFamily, labels map[string]string) *dto.Metric {
	if mf == nil {
		return nil
	}
	for _, m := range mf.GetMetric() {
		matched := 0
		for _, lp := range m.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return m
		}
	}
	return nil
}

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(WithRegistry(reg))
	p := newDiskPipeline(t, Config{MaxPartBytes: 16}, WithMetrics(metrics))

	_, err := p.Process(context.Background(), newReader(t,
		testPart{field: "profile", filename: "a.png", contentType: "image/png", body: []byte("12345678")},
		testPart{field: "whatever", filename: "b.png", contentType: "image/png", body: []byte("x")},
		testPart{field: "image", filename: "c.png", contentType: "image/png", body: make([]byte, 17)},
	))
	require.NoError(t, err)

	families := gather(t, reg)

	parts := families["formstore_ingest_parts_total"]
	require.NotNil(t, parts)

	tests := []struct {
		labels map[string]string
		want   float64
	}{
		{map[string]string{"field": "profile", "status": "stored", "reason": ""}, 1},
		{map[string]string{"field": "unknown", "status": "rejected", "reason": "UnknownField"}, 1},
		{map[string]string{"field": "image", "status": "aborted", "reason": "SizeLimitExceeded"}, 1},
	}
	for _, tt := range tests {
		m := findMetric(parts, tt.labels)
		require.NotNil(t, m, "labels %v", tt.labels)
		assert.Equal(t, tt.want, m.GetCounter().GetValue())
	}
	assert.Nil(t, findMetric(parts, map[string]string{"field": "whatever"}))

	sizes := findMetric(families["formstore_ingest_stored_bytes"], map[string]string{"category": "profile_image"})
	require.NotNil(t, sizes)
	assert.Equal(t, uint64(1), sizes.GetHistogram().GetSampleCount())
	assert.Equal(t, float64(8), sizes.GetHistogram().GetSampleSum())

	requests := findMetric(families["formstore_ingest_requests_total"], map[string]string{"result": "partial"})
	require.NotNil(t, requests)
	assert.Equal(t, float64(1), requests.GetCounter().GetValue())

	inFlight := families["formstore_ingest_in_flight_requests"]
	require.NotNil(t, inFlight)
	assert.Equal(t, float64(0), inFlight.GetMetric()[0].GetGauge().GetValue())
}

func TestMetricsFailedRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newDiskPipeline(t, Config{}, WithMetrics(NewMetrics(WithRegistry(reg), WithNamespace("test"))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Process(ctx, newReader(t))
	require.Error(t, err)

	m := findMetric(gather(t, reg)["test_ingest_requests_total"], map[string]string{"result": "failed"})
	require.NotNil(t, m)
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.requestStarted()
	m.observePart(PartOutcome{Status: StatusStored})
	m.requestDone(&RequestOutcome{}, nil)
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "none", fieldLabel(PartOutcome{Reason: ReasonMissingPart}))
	assert.Equal(t, "unknown", fieldLabel(PartOutcome{Field: "../etc", Reason: ReasonUnknownField}))
	assert.Equal(t, "video", fieldLabel(PartOutcome{Field: "video", Reason: ReasonUnsupportedContentType}))
}
