// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"context"
	"net/netip"
	"time"
)

// ProbeWorkerConfig configures a single [*ProbeWorker].
type ProbeWorkerConfig struct {
	// SourceIP is the local address the worker binds probes to; the source
	// port comes from [*PortPicker.Next] on each iteration.
	SourceIP netip.Addr

	// Target is the endpoint every probe from this worker is sent to.
	Target netip.AddrPort

	// PingInterval is the delay between successive probes, measured from
	// the end of one probe to the start of the next.
	PingInterval time.Duration

	// IsWarmup marks every [ProbeResult] this worker produces with
	// [ProbeResult.IsWarmup].
	IsWarmup bool
}

// NewProbeWorker returns a new [*ProbeWorker].
func NewProbeWorker(
	id uint32,
	cfg ProbeWorkerConfig,
	client ProbeClient,
	portPicker *PortPicker,
	stopEvent *StopEvent,
	results *UnboundedChan[ProbeResult],
	timeNow func() time.Time,
) *ProbeWorker {
	if timeNow == nil {
		timeNow = time.Now
	}
	return &ProbeWorker{
		id:         id,
		cfg:        cfg,
		client:     client,
		portPicker: portPicker,
		stopEvent:  stopEvent,
		results:    results,
		timeNow:    timeNow,
	}
}

// ProbeWorker repeatedly draws a source port from a shared [*PortPicker],
// probes [ProbeWorkerConfig.Target], and submits a [ProbeResult] to the
// engine's unbounded result channel, until the port picker is exhausted or
// the worker's [*StopEvent] fires.
type ProbeWorker struct {
	id         uint32
	cfg        ProbeWorkerConfig
	client     ProbeClient
	portPicker *PortPicker
	stopEvent  *StopEvent
	results    *UnboundedChan[ProbeResult]
	timeNow    func() time.Time
}

// Run executes the worker loop until the port picker is exhausted or the
// worker's stop event fires. It blocks until then; callers run it in its
// own goroutine.
func (w *ProbeWorker) Run(ctx context.Context) error {
	if err := w.client.PrepareProbe(ctx, w.cfg.Target); err != nil {
		return &PreparationError{Err: err}
	}

	for {
		sourcePort, ok := w.portPicker.Next()
		if !ok {
			return nil
		}

		w.runSingleProbe(ctx, sourcePort)

		if !w.waitForNextSchedule() {
			return nil
		}
	}
}

func (w *ProbeWorker) runSingleProbe(ctx context.Context, sourcePort uint16) {
	source := netip.AddrPortFrom(w.cfg.SourceIP, sourcePort)
	probeTime := w.timeNow()

	outcome, err := w.client.Ping(ctx, source, w.cfg.Target)
	if err != nil {
		w.results.Send(w.buildErrorResult(probeTime, source, err))
		return
	}
	w.results.Send(w.buildSuccessResult(probeTime, source, outcome))
}

func (w *ProbeWorker) buildSuccessResult(probeTime time.Time, fallbackSource netip.AddrPort, outcome *ProbeOutcome) ProbeResult {
	source := outcome.Source
	if !source.IsValid() {
		source = fallbackSource
	}
	return ProbeResult{
		UtcTime:         probeTime,
		WorkerID:        w.id,
		Protocol:        w.client.Protocol(),
		Target:          w.cfg.Target,
		Source:          source,
		IsWarmup:        w.cfg.IsWarmup,
		IsSucceeded:     !outcome.IsTimedOut,
		RttInMs:         float64(outcome.Rtt) / float64(time.Millisecond),
		IsTimedOut:      outcome.IsTimedOut,
		HandshakeError:  outcome.HandshakeWarning,
		DisconnectError: outcome.DisconnectWarning,
	}
}

func (w *ProbeWorker) buildErrorResult(probeTime time.Time, source netip.AddrPort, err error) ProbeResult {
	result := ProbeResult{
		UtcTime:  probeTime,
		WorkerID: w.id,
		Protocol: w.client.Protocol(),
		Target:   w.cfg.Target,
		Source:   source,
		IsWarmup: w.cfg.IsWarmup,
	}
	switch e := err.(type) {
	case *PreparationError:
		result.PreparationError = e
	case *PingError:
		result.PingError = e
	default:
		result.PingError = &PingError{Err: err}
	}
	return result
}

func (w *ProbeWorker) waitForNextSchedule() bool {
	timer := time.NewTimer(w.cfg.PingInterval)
	defer timer.Stop()
	select {
	case <-w.stopEvent.Done():
		return false
	case <-timer.C:
		return true
	}
}
