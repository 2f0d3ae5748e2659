// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"encoding/json"
	"io"
	"sync"
)

// JSONResultProcessor writes every result as a single top-level JSON array
// of objects, matching the schema documented for the CLI's --log-json flag.
type JSONResultProcessor struct {
	mu      sync.Mutex
	writer  io.Writer
	encoder *json.Encoder
	wrote   bool
}

// NewJSONResultProcessor returns a new [*JSONResultProcessor] writing to w.
func NewJSONResultProcessor(w io.Writer) *JSONResultProcessor {
	return &JSONResultProcessor{writer: w, encoder: json.NewEncoder(w)}
}

var _ ResultProcessor = &JSONResultProcessor{}

// Name implements [ResultProcessor].
func (p *JSONResultProcessor) Name() string { return "JsonLogger" }

// Initialize implements [ResultProcessor].
func (p *JSONResultProcessor) Initialize() {
	io.WriteString(p.writer, "[\n")
}

// Process implements [ResultProcessor].
func (p *JSONResultProcessor) Process(result ProbeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wrote {
		io.WriteString(p.writer, ",\n")
	}
	p.wrote = true
	_ = p.encoder.Encode(result)
}

// Rundown implements [ResultProcessor].
func (p *JSONResultProcessor) Rundown() {
	io.WriteString(p.writer, "]\n")
}
