// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"fmt"
	"io"
	"sync"
)

// TextResultProcessor writes each result's [ProbeResult.String] form to a
// writer, one line per result. Unlike [*ConsoleResultProcessor], it keeps
// no running statistics and prints no summary: it is meant for logging to
// a file alongside a quieter console processor.
type TextResultProcessor struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewTextResultProcessor returns a new [*TextResultProcessor] writing to w.
func NewTextResultProcessor(w io.Writer) *TextResultProcessor {
	return &TextResultProcessor{writer: w}
}

var _ ResultProcessor = &TextResultProcessor{}

// Name implements [ResultProcessor].
func (p *TextResultProcessor) Name() string { return "TextLogger" }

// Initialize implements [ResultProcessor].
func (p *TextResultProcessor) Initialize() {}

// Process implements [ResultProcessor].
func (p *TextResultProcessor) Process(result ProbeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.writer, result.String())
}

// Rundown implements [ResultProcessor].
func (p *TextResultProcessor) Rundown() {}
