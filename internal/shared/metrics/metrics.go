package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	transitionsTotal       atomic.Uint64
	transitionsNoopTotal   atomic.Uint64
	transitionsFailedTotal atomic.Uint64
	storeSaveFailedTotal   atomic.Uint64
	activityPublishFailed  atomic.Uint64
	dailyOpsRunsTotal      atomic.Uint64

	transitionsByKind sync.Map // kind -> *atomic.Uint64

	transitionDuration = newHistogram([]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000})
)

// IncTransition counts an effective status transition for kind.
func IncTransition(kind string) {
	transitionsTotal.Add(1)
	v, _ := transitionsByKind.LoadOrStore(kind, new(atomic.Uint64))
	v.(*atomic.Uint64).Add(1)
}

// IncTransitionNoop counts a transition to the entity's current status.
func IncTransitionNoop() {
	transitionsNoopTotal.Add(1)
}

// IncTransitionFailed counts a transition rejected or aborted by an error.
func IncTransitionFailed() {
	transitionsFailedTotal.Add(1)
}

// IncStoreSaveFailed counts a unit of work whose save did not succeed.
func IncStoreSaveFailed() {
	storeSaveFailedTotal.Add(1)
}

func IncActivityPublishFailed() {
	activityPublishFailed.Add(1)
}

func IncDailyOpsRun() {
	dailyOpsRunsTotal.Add(1)
}

// ObserveTransitionDurationMs records a transition duration in milliseconds.
func ObserveTransitionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	transitionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "transitions_total", "Total effective status transitions", transitionsTotal.Load())
	writeLabeledCounter(&buf, "transitions_by_kind_total", "Effective status transitions per entity kind", "kind", kindCounts())
	writeCounter(&buf, "transitions_noop_total", "Transitions to the current status", transitionsNoopTotal.Load())
	writeCounter(&buf, "transitions_failed_total", "Transitions that returned an error", transitionsFailedTotal.Load())
	writeCounter(&buf, "store_save_failed_total", "Snapshot saves that failed", storeSaveFailedTotal.Load())
	writeCounter(&buf, "activity_publish_failed_total", "Activity events not delivered to the stream", activityPublishFailed.Load())
	writeCounter(&buf, "daily_ops_runs_total", "Completed daily operations runs", dailyOpsRunsTotal.Load())
	writeHistogram(&buf, "transition_duration_ms", "Transition duration in milliseconds", transitionDuration.Snapshot())
	return buf.String()
}

func kindCounts() map[string]uint64 {
	out := make(map[string]uint64)
	transitionsByKind.Range(func(k, v any) bool {
		out[k.(string)] = v.(*atomic.Uint64).Load()
		return true
	})
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe adds value to the first bucket it fits; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
