// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProcessor records every result it sees and how many times its
// lifecycle methods were called.
type recordingProcessor struct {
	mu             sync.Mutex
	initCount      int
	rundownCount   int
	results        []ProbeResult
	rundownAfterAllProcess bool
}

var _ ResultProcessor = &recordingProcessor{}

func (p *recordingProcessor) Name() string { return "recording" }

func (p *recordingProcessor) Initialize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initCount++
}

func (p *recordingProcessor) Process(result ProbeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
}

func (p *recordingProcessor) Rundown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rundownCount++
}

func TestResultProcessingWorkerLifecycleOrder(t *testing.T) {
	stop := NewStopEvent()
	results := NewUnboundedChan[ProbeResult]()
	proc := &recordingProcessor{}

	worker := NewResultProcessingWorker(stop, results, []ResultProcessor{proc})

	done := make(chan struct{})
	go func() {
		worker.Run()
		close(done)
	}()

	for i := 0; i < 3; i++ {
		results.Send(ProbeResult{WorkerID: uint32(i)})
	}
	results.Close()
	stop.Set()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not finish")
	}

	assert.Equal(t, 1, proc.initCount)
	assert.Equal(t, 1, proc.rundownCount)
	require.Len(t, proc.results, 3)
}

func TestResultProcessingWorkerDrainsBufferedResultsAfterStop(t *testing.T) {
	stop := NewStopEvent()
	results := NewUnboundedChan[ProbeResult]()
	proc := &recordingProcessor{}

	worker := NewResultProcessingWorker(stop, results, []ResultProcessor{proc})

	// Buffer results before the worker goroutine starts, then immediately
	// signal stop: every already-submitted result must still be delivered.
	for i := 0; i < 5; i++ {
		results.Send(ProbeResult{WorkerID: uint32(i)})
	}

	done := make(chan struct{})
	go func() {
		worker.Run()
		close(done)
	}()

	stop.Set()
	results.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not finish")
	}

	assert.Len(t, proc.results, 5)
}

func TestResultProcessingWorkerDispatchesToEveryProcessorInOrder(t *testing.T) {
	stop := NewStopEvent()
	results := NewUnboundedChan[ProbeResult]()
	first := &recordingProcessor{}
	second := &recordingProcessor{}

	worker := NewResultProcessingWorker(stop, results, []ResultProcessor{first, second})

	done := make(chan struct{})
	go func() {
		worker.Run()
		close(done)
	}()

	results.Send(ProbeResult{WorkerID: 42})
	results.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not finish")
	}

	require.Len(t, first.results, 1)
	require.Len(t, second.results, 1)
	assert.Equal(t, uint32(42), first.results[0].WorkerID)
	assert.Equal(t, uint32(42), second.results[0].WorkerID)
}
