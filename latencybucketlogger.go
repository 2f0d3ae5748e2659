// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

// NewLatencyBucketResultProcessor returns a new
// [*LatencyBucketResultProcessor] writing its rundown histogram to w (or
// [os.Stdout] if w is nil), bucketed by the given upper bounds in
// milliseconds (e.g. [0.1, 0.5, 1.0, 10.0, 50.0, 100.0]).
//
// boundsInMs must be non-empty; buckets are upper-bound-exclusive, so a
// result lands in the first bucket whose bound it is strictly less than.
// Results at or above the last bound land in an implicit final, unbounded
// bucket.
func NewLatencyBucketResultProcessor(w io.Writer, boundsInMs []float64) *LatencyBucketResultProcessor {
	if w == nil {
		w = os.Stdout
	}
	if len(boundsInMs) == 0 {
		panic("rnp: latency bucket processor requires at least one bound")
	}
	bounds := append([]float64(nil), boundsInMs...)
	bounds = append(bounds, math.Inf(1))
	return &LatencyBucketResultProcessor{
		writer:     w,
		boundsInMs: bounds,
		hitCounts:  make([]uint32, len(bounds)),
	}
}

// LatencyBucketResultProcessor tracks a histogram of round-trip times,
// plus separate counters for timed-out and failed probes, printed as a
// table on rundown.
type LatencyBucketResultProcessor struct {
	mu sync.Mutex

	writer     io.Writer
	boundsInMs []float64
	hitCounts  []uint32

	totalCount    uint32
	timedOutCount uint32
	failedCount   uint32
}

var _ ResultProcessor = &LatencyBucketResultProcessor{}

// Name implements [ResultProcessor].
func (p *LatencyBucketResultProcessor) Name() string { return "LatencyBucketLogger" }

// Initialize implements [ResultProcessor].
func (p *LatencyBucketResultProcessor) Initialize() {}

// Process implements [ResultProcessor].
func (p *LatencyBucketResultProcessor) Process(result ProbeResult) {
	if result.IsWarmup || result.PreparationError != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalCount++
	switch {
	case result.IsTimedOut:
		p.timedOutCount++
	case result.PingError != nil:
		p.failedCount++
	default:
		p.trackLatency(result.RttInMs)
	}
}

func (p *LatencyBucketResultProcessor) trackLatency(rttInMs float64) {
	for i, bound := range p.boundsInMs {
		if rttInMs < bound {
			p.hitCounts[i]++
			return
		}
	}
	p.hitCounts[len(p.hitCounts)-1]++
}

// Rundown implements [ResultProcessor].
func (p *LatencyBucketResultProcessor) Rundown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.writer, "\n=== Latency buckets (in milliseconds) ===\n")
	fmt.Fprintf(p.writer, "%15s | %s\n", "Latency Range", "Count")
	fmt.Fprintln(p.writer, "----------------+------------")

	for i, bound := range p.boundsInMs {
		var label string
		if i < len(p.boundsInMs)-1 {
			label = fmt.Sprintf("< %.2fms", bound)
		} else {
			label = fmt.Sprintf(">= %.2fms", p.boundsInMs[i-1])
		}
		fmt.Fprintf(p.writer, "%15s | %d\n", label, p.hitCounts[i])
	}

	fmt.Fprintf(p.writer, "%15s | %d\n", "Timed Out", p.timedOutCount)
	fmt.Fprintf(p.writer, "%15s | %d\n", "Failed", p.failedCount)
	fmt.Fprintln(p.writer, "----------------+------------")
	fmt.Fprintf(p.writer, "%15s | %d\n", "Total", p.totalCount)
}
