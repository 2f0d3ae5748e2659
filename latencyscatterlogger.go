// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// LatencyScatterResultProcessor renders a per-source-port scatter map of
// latency buckets, one character per port, on rundown. Unlike
// [*ResultScatterResultProcessor], the symbol encodes a coarse latency
// bucket rather than pass/fail.
type LatencyScatterResultProcessor struct {
	mu      sync.Mutex
	writer  io.Writer
	history map[uint32][]rune
}

// NewLatencyScatterResultProcessor returns a new
// [*LatencyScatterResultProcessor] writing its rundown map to w, or to
// [os.Stdout] if w is nil.
func NewLatencyScatterResultProcessor(w io.Writer) *LatencyScatterResultProcessor {
	if w == nil {
		w = os.Stdout
	}
	return &LatencyScatterResultProcessor{writer: w, history: make(map[uint32][]rune)}
}

var _ ResultProcessor = &LatencyScatterResultProcessor{}

// Name implements [ResultProcessor].
func (p *LatencyScatterResultProcessor) Name() string { return "LatencyScatterLogger" }

// Initialize implements [ResultProcessor].
func (p *LatencyScatterResultProcessor) Initialize() {}

// Process implements [ResultProcessor].
func (p *LatencyScatterResultProcessor) Process(result ProbeResult) {
	if result.IsWarmup || result.PreparationError != nil {
		return
	}

	port := uint32(result.Source.Port())
	row := (port / scatterCountPerRow) * scatterCountPerRow
	index := port % scatterCountPerRow

	symbol := latencySymbol(result)

	p.mu.Lock()
	defer p.mu.Unlock()
	bucket, ok := p.history[row]
	if !ok {
		bucket = make([]rune, scatterCountPerRow)
		for i := range bucket {
			bucket[i] = scatterSymbolNotTestedYet
		}
		p.history[row] = bucket
	}
	bucket[index] = symbol
}

func latencySymbol(result ProbeResult) rune {
	switch {
	case result.PingError != nil:
		return scatterSymbolFailed
	case result.IsTimedOut:
		return 'T'
	case result.RttInMs < 10:
		return '1'
	case result.RttInMs < 50:
		return '2'
	case result.RttInMs < 100:
		return '3'
	case result.RttInMs < 500:
		return '4'
	default:
		return '5'
	}
}

// Rundown implements [ResultProcessor].
func (p *LatencyScatterResultProcessor) Rundown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.writer, "\n=== Latency scatter map ===\n")
	fmt.Fprintf(p.writer, "%7s | %s\n", "Src", "Results")
	fmt.Fprintln(p.writer, `        | ("1" < 10ms, "2" < 50ms, "3" < 100ms, "4" < 500ms, "5" >= 500ms, "T" = timed out, "X" = failed, "." = not tested yet)`)
	fmt.Fprintln(p.writer, "--------+-0---4-5---9-0---4-5---9-------------------")

	rows := make([]uint32, 0, len(p.history))
	for row := range p.history {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })

	for _, row := range rows {
		fmt.Fprintf(p.writer, "%7d | %s\n", row, formatScatterRow(p.history[row]))
	}
}
