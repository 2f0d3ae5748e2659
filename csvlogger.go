// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"encoding/csv"
	"io"
	"strings"
	"sync"
)

// CSVResultProcessor writes each result as a row to a [*csv.Writer],
// flushing after every row so a tailing reader sees results as they arrive.
type CSVResultProcessor struct {
	mu     sync.Mutex
	writer *csv.Writer
}

// NewCSVResultProcessor returns a new [*CSVResultProcessor] writing to w.
func NewCSVResultProcessor(w io.Writer) *CSVResultProcessor {
	return &CSVResultProcessor{writer: csv.NewWriter(w)}
}

var _ ResultProcessor = &CSVResultProcessor{}

// Name implements [ResultProcessor].
func (p *CSVResultProcessor) Name() string { return "CsvLogger" }

// Initialize implements [ResultProcessor].
func (p *CSVResultProcessor) Initialize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.writer.Write(strings.Split(CSVHeader(), ","))
	p.writer.Flush()
}

// Process implements [ResultProcessor].
func (p *CSVResultProcessor) Process(result ProbeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.writer.Write(result.CSVRecord())
	p.writer.Flush()
}

// Rundown implements [ResultProcessor].
func (p *CSVResultProcessor) Rundown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer.Flush()
}
