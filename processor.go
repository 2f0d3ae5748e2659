// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

// ResultProcessor consumes a stream of [ProbeResult] values produced by the
// engine's result processing worker.
//
// The processing worker drives every registered [ResultProcessor] through
// the same three-phase lifecycle, in order: [ResultProcessor.Initialize]
// once before the first result, [ResultProcessor.Process] once per result
// in submission order, and [ResultProcessor.Rundown] once after the result
// channel has been drained. A processor that needs to print a final summary
// (e.g. [*ConsoleResultProcessor]) does so from Rundown.
type ResultProcessor interface {
	// Name identifies the processor for logging.
	Name() string

	// Initialize is called once, before the first [ResultProcessor.Process]
	// call.
	Initialize()

	// Process handles a single result.
	Process(result ProbeResult)

	// Rundown is called once, after the result stream has been fully
	// drained, to flush any buffered output or print a summary.
	Rundown()
}
