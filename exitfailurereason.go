// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import "sync"

// ExitFailureReason is a set-once cell holding the [ProbeResult] that
// triggered exit-on-fail shutdown.
//
// [*ConsoleResultProcessor] writes to this cell at most once, right before
// it sets the probe-scope [StopEvent], so that callers driving the engine
// programmatically can recover the triggering result instead of just
// observing that the stop event fired.
type ExitFailureReason struct {
	once   sync.Once
	mu     sync.Mutex
	result *ProbeResult
}

// NewExitFailureReason returns a new, unset [*ExitFailureReason].
func NewExitFailureReason() *ExitFailureReason {
	return &ExitFailureReason{}
}

// Set records result as the triggering failure. Idempotent: only the first
// call has any effect.
func (r *ExitFailureReason) Set(result ProbeResult) {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.result = &result
	})
}

// Get returns the recorded result, or nil if [*ExitFailureReason.Set] has
// not been called yet.
func (r *ExitFailureReason) Get() *ProbeResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}
