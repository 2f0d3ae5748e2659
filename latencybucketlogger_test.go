// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatencyBucketResultProcessorHistogram(t *testing.T) {
	var buf bytes.Buffer
	p := NewLatencyBucketResultProcessor(&buf, []float64{1.0, 10.0})

	p.Process(ProbeResult{IsSucceeded: true, RttInMs: 0.5})
	p.Process(ProbeResult{IsSucceeded: true, RttInMs: 5})
	p.Process(ProbeResult{IsSucceeded: true, RttInMs: 50})
	p.Process(ProbeResult{IsTimedOut: true})
	p.Process(ProbeResult{PingError: &PingError{Err: errSentinel}})
	// Warmup and preparation-failure results are excluded entirely.
	p.Process(ProbeResult{IsWarmup: true, IsSucceeded: true, RttInMs: 0.1})
	p.Process(ProbeResult{PreparationError: &PreparationError{Err: errSentinel}})
	p.Rundown()

	out := buf.String()
	assert.Contains(t, out, "< 1.00ms")
	assert.Contains(t, out, "< 10.00ms")
	assert.Contains(t, out, ">= 10.00ms")
	assert.Contains(t, out, "Timed Out")
	assert.Contains(t, out, "Failed")
	assert.Contains(t, out, "Total")
}

func TestLatencyBucketResultProcessorBoundaryIsExclusive(t *testing.T) {
	var buf bytes.Buffer
	p := NewLatencyBucketResultProcessor(&buf, []float64{10.0})

	p.Process(ProbeResult{IsSucceeded: true, RttInMs: 10.0})
	p.Rundown()

	// 10.0 is not strictly less than the 10.0 bound, so it falls into the
	// implicit unbounded final bucket, not the first one.
	assert.Contains(t, buf.String(), ">= 10.00ms | 1")
}

func TestLatencyBucketResultProcessorPanicsOnEmptyBounds(t *testing.T) {
	assert.Panics(t, func() {
		NewLatencyBucketResultProcessor(&bytes.Buffer{}, nil)
	})
}

func TestLatencyBucketResultProcessorName(t *testing.T) {
	p := NewLatencyBucketResultProcessor(&bytes.Buffer{}, []float64{1.0})
	assert.Equal(t, "LatencyBucketLogger", p.Name())
}
