// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

const (
	scatterCountPerRow            = 20
	scatterSymbolNotTestedYet     = '.'
	scatterSymbolPassed           = 'O'
	scatterSymbolFailed           = 'X'
	scatterSymbolPrepareFailed    = '-'
	scatterSymbolHandshakeFailed  = 'H'
	scatterSymbolDisconnectFailed = 'D'
)

// ResultScatterResultProcessor renders a per-source-port scatter map of
// pass/fail symbols on rundown, one row per block of 20 consecutive ports.
type ResultScatterResultProcessor struct {
	mu      sync.Mutex
	writer  io.Writer
	history map[uint32][]rune
}

// NewResultScatterResultProcessor returns a new
// [*ResultScatterResultProcessor] writing its rundown map to w, or to
// [os.Stdout] if w is nil.
func NewResultScatterResultProcessor(w io.Writer) *ResultScatterResultProcessor {
	if w == nil {
		w = os.Stdout
	}
	return &ResultScatterResultProcessor{writer: w, history: make(map[uint32][]rune)}
}

var _ ResultProcessor = &ResultScatterResultProcessor{}

// Name implements [ResultProcessor].
func (p *ResultScatterResultProcessor) Name() string { return "ResultScatterLogger" }

// Initialize implements [ResultProcessor].
func (p *ResultScatterResultProcessor) Initialize() {}

// Process implements [ResultProcessor].
func (p *ResultScatterResultProcessor) Process(result ProbeResult) {
	if result.IsWarmup || result.PreparationError != nil {
		return
	}

	port := uint32(result.Source.Port())
	row := (port / scatterCountPerRow) * scatterCountPerRow
	index := port % scatterCountPerRow

	symbol := rune(scatterSymbolPassed)
	switch {
	case result.PingError != nil:
		symbol = scatterSymbolFailed
	case result.HandshakeError != nil:
		symbol = scatterSymbolHandshakeFailed
	case result.DisconnectError != nil:
		symbol = scatterSymbolDisconnectFailed
	}

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

// Rundown implements [ResultProcessor].
func (p *ResultScatterResultProcessor) Rundown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.writer, "\n=== Ping result scatter map ===\n")
	fmt.Fprintf(p.writer, "%7s | %s\n", "Src", "Results")
	fmt.Fprintf(p.writer, "%7s | (%q = Ok, %q = Fail, %q = Not tested yet, %q = Preparation failed, %q = App handshake failed, %q = Disconnect failed)\n",
		"Port", scatterSymbolPassed, scatterSymbolFailed, scatterSymbolNotTestedYet,
		scatterSymbolPrepareFailed, scatterSymbolHandshakeFailed, scatterSymbolDisconnectFailed)
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

func formatScatterRow(hits []rune) string {
	out := make([]rune, 0, scatterCountPerRow+scatterCountPerRow/5)
	for i, r := range hits {
		out = append(out, r)
		if i != len(hits)-1 && (i+1)%5 == 0 {
			out = append(out, ' ')
		}
	}
	return string(out)
}
