// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

// ResultProcessingWorker drains the engine's unbounded result channel
// through every registered [ResultProcessor], in lockstep: each result is
// handed to every processor, in registration order, before the next result
// is pulled.
//
// Lifecycle: [*ResultProcessingWorker.Run] initializes every processor,
// then alternates between delivering available results and watching its
// own [StopEvent]; once that stop event fires, no new results are accepted
// but any already buffered in the channel are still drained (the "drain"
// phase) before every processor's Rundown is called (the "rundown" phase).
// This guarantees a processor's summary always reflects every result the
// engine actually produced up to the point the channel was closed, never a
// partial view cut off mid-stream.
type ResultProcessingWorker struct {
	stopEvent  *StopEvent
	results    *UnboundedChan[ProbeResult]
	processors []ResultProcessor
}

// NewResultProcessingWorker returns a new [*ResultProcessingWorker].
func NewResultProcessingWorker(stopEvent *StopEvent, results *UnboundedChan[ProbeResult], processors []ResultProcessor) *ResultProcessingWorker {
	return &ResultProcessingWorker{stopEvent: stopEvent, results: results, processors: processors}
}

// Run executes the worker until the result channel is closed and drained.
// It blocks until then; callers run it in its own goroutine.
func (w *ResultProcessingWorker) Run() {
	for _, p := range w.processors {
		p.Initialize()
	}

	w.runProcessingLoop()

	for _, p := range w.processors {
		p.Rundown()
	}
}

func (w *ResultProcessingWorker) runProcessingLoop() {
	out := w.results.Out()
	for {
		select {
		case result, ok := <-out:
			if !ok {
				return
			}
			w.dispatch(result)
		case <-w.stopEvent.Done():
			w.drainRemaining(out)
			return
		}
	}
}

// drainRemaining processes any results already buffered in the channel
// after the stop event fires, without waiting for new ones to be submitted.
// It relies on the engine closing the channel once every probe worker has
// stopped, so this loop terminates even though it no longer selects on the
// stop event.
func (w *ResultProcessingWorker) drainRemaining(out <-chan ProbeResult) {
	for result := range out {
		w.dispatch(result)
	}
}

func (w *ResultProcessingWorker) dispatch(result ProbeResult) {
	for _, p := range w.processors {
		p.Process(result)
	}
}
