package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Mutation(t *testing.T) {
	r := New()

	r.Mutation("add", "applied")
	r.Mutation("add", "applied")
	r.Mutation("reparent", "cycle-rejected")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.MutationsTotal.WithLabelValues("add", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.MutationsTotal.WithLabelValues("reparent", "cycle-rejected")))
}

func TestRecorder_NodesAndSaves(t *testing.T) {
	r := New()

	r.SetNodes(7)
	r.Save(SaveWritten, 3*time.Millisecond)
	r.Save(SaveSkipped, 0)

	assert.Equal(t, 7.0, testutil.ToFloat64(r.Nodes))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SavesTotal.WithLabelValues(SaveWritten)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SavesTotal.WithLabelValues(SaveSkipped)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.SaveDuration))
}

func TestRecorder_Plan(t *testing.T) {
	r := New()

	r.Plan(PlanOK)
	r.Plan(PlanUnavailable)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.PlanRequestsTotal.WithLabelValues(PlanUnavailable)))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.Mutation("add", "applied")
		r.SetNodes(1)
		r.Save(SaveWritten, time.Second)
		r.Plan(PlanOK)
	})
	assert.Nil(t, r.Registry())
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	a, b := New(), New()

	a.Mutation("add", "applied")

	assert.Equal(t, 0.0, testutil.ToFloat64(b.MutationsTotal.WithLabelValues("add", "applied")))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.Mutation("delete", "applied")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `doney_mutations_total{op="delete",outcome="applied"} 1`)
}
