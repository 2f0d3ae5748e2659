// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bassosimone/rnp"
)

// buildProcessors assembles the result processor chain from o, in
// registration order: console (unless -q is given twice or more), then the optional
// file-backed and scatter/bucket processors. The returned closers must be
// closed, in order, after [*rnp.Engine.Join] returns.
func buildProcessors(o *options) ([]rnp.ResultProcessor, []io.Closer, error) {
	var processors []rnp.ResultProcessor
	var closers []io.Closer

	if o.quiet < 2 {
		processors = append(processors, rnp.NewConsoleResultProcessor(rnp.ConsoleResultProcessorConfig{
			Writer: os.Stdout,
			Quiet:  o.quiet >= 1,
		}))
	}

	if path := strings.TrimSpace(o.csvLogPath); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, closers, fmt.Errorf("rnp: cannot create CSV log file: %w", err)
		}
		closers = append(closers, f)
		processors = append(processors, rnp.NewCSVResultProcessor(f))
	}

	if path := strings.TrimSpace(o.jsonLogPath); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, closers, fmt.Errorf("rnp: cannot create JSON log file: %w", err)
		}
		closers = append(closers, f)
		processors = append(processors, rnp.NewJSONResultProcessor(f))
	}

	if path := strings.TrimSpace(o.textLogPath); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, closers, fmt.Errorf("rnp: cannot create text log file: %w", err)
		}
		closers = append(closers, f)
		processors = append(processors, rnp.NewTextResultProcessor(f))
	}

	if o.showResultScatter {
		processors = append(processors, rnp.NewResultScatterResultProcessor(os.Stdout))
	}

	if o.showLatencyScatter {
		processors = append(processors, rnp.NewLatencyScatterResultProcessor(os.Stdout))
	}

	if strings.TrimSpace(o.latencyBuckets) != "" {
		processors = append(processors, rnp.NewLatencyBucketResultProcessor(os.Stdout, o.resolvedBuckets))
	}

	return processors, closers, nil
}
