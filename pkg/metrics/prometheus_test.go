package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordRoundAnalyzed("kafka")
	r.RecordRoundAnalyzed("kafka")
	r.RecordShots(18, 2)
	r.RecordStrokesGained("putting", -0.3)
	r.RecordError("round_lock")
	r.RecordLatency("process_round", 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.roundsAnalyzed.WithLabelValues("kafka")))
	assert.Equal(t, 18.0, testutil.ToFloat64(r.shotsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.shotsReview))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("round_lock")))

	n, err := testutil.GatherAndCount(reg, "shottrace_strokes_gained", "shottrace_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecorderSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
