package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts %v", snap.counts)
	}

	var buf bytes.Buffer
	writeHistogram(&buf, "x", "test", snap)
	out := buf.String()
	if !strings.Contains(out, `x_bucket{le="10"} 1`) {
		t.Fatalf("missing le=10 bucket:\n%s", out)
	}
	if !strings.Contains(out, `x_bucket{le="100"} 2`) {
		t.Fatalf("missing cumulative le=100 bucket:\n%s", out)
	}
	if !strings.Contains(out, `x_bucket{le="+Inf"} 3`) {
		t.Fatalf("missing +Inf bucket:\n%s", out)
	}
	if !strings.Contains(out, "x_sum 555") {
		t.Fatalf("missing sum:\n%s", out)
	}
}

func TestRenderIncludesTransitionCounters(t *testing.T) {
	IncTransition("application")
	IncTransitionNoop()
	out := Render()
	for _, want := range []string{
		"transitions_total",
		`transitions_by_kind_total{kind="application"}`,
		"transitions_noop_total",
		"store_save_failed_total",
		"transition_duration_ms_count",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
