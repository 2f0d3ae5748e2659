// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"
)

// EngineConfig configures a [*Engine].
type EngineConfig struct {
	// Target is the endpoint every probe worker probes.
	Target netip.AddrPort

	// SourceIP is the local address every probe worker binds to.
	SourceIP netip.Addr

	// SourcePorts is the set of source ports workers cycle through.
	SourcePorts PortRangeList

	// Protocol selects the probe client via [*ProbeClientFactory.New].
	Protocol string

	// Factory resolves Protocol to a [ProbeClient] constructor.
	Factory *ProbeClientFactory

	// PingInterval is the delay between successive probes from one worker.
	PingInterval time.Duration

	// PingCount bounds the total number of non-warmup probes across all
	// workers. Nil means probe forever.
	PingCount *uint32

	// WarmupCount is the number of single-worker warmup probes run before
	// [*Engine.StartNormalPings], using the first WarmupCount source ports.
	// Normal pings skip these ports so the OS has time to recycle them.
	WarmupCount uint32

	// ParallelPingCount is the number of concurrent normal-phase workers.
	ParallelPingCount uint32

	// Processors receive every probe result, warmup and normal alike.
	Processors []ResultProcessor

	// ExitFailureReason, if non-nil, is the cell an exit-on-fail console
	// processor writes the triggering result to. Construct it once with
	// [NewExitFailureReason] and pass the same pointer into both this
	// config and the [ConsoleResultProcessorConfig] in Processors.
	ExitFailureReason *ExitFailureReason

	// TimeNow returns the current time (configurable for testing).
	TimeNow func() time.Time
}

// Engine orchestrates a port picker, a pool of probe workers, and a single
// result processing worker into the warmup -> steady-state -> join pipeline
// described in the package documentation's "Probing Model" section.
type Engine struct {
	cfg EngineConfig

	stopEvent          *StopEvent
	processorStopEvent *StopEvent
	results            *UnboundedChan[ProbeResult]

	workerWG       sync.WaitGroup
	processingDone chan struct{}
}

// NewEngine returns a new [*Engine] and starts its result processing worker.
// The processing worker runs until [*Engine.Join] returns.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TimeNow == nil {
		cfg.TimeNow = time.Now
	}
	if cfg.ExitFailureReason == nil {
		cfg.ExitFailureReason = NewExitFailureReason()
	}

	e := &Engine{
		cfg:                cfg,
		stopEvent:          NewStopEvent(),
		processorStopEvent: NewStopEvent(),
		results:            NewUnboundedChan[ProbeResult](),
		processingDone:     make(chan struct{}),
	}

	worker := NewResultProcessingWorker(e.processorStopEvent, e.results, cfg.Processors)
	go func() {
		defer close(e.processingDone)
		worker.Run()
	}()

	return e
}

// StopEvent returns the probe-scope stop event; setting it makes probe
// workers stop early, and [*Engine.Join] always observes it. [NewEngine]
// creates it after the processors in [EngineConfig.Processors] are built
// and hands it to none of them, so an exit-on-fail [*ConsoleResultProcessor]
// sets the StopEvent of its own config, not this one, and does not stop the
// probe workers by itself.
func (e *Engine) StopEvent() *StopEvent { return e.stopEvent }

// ExitFailureReason returns the cell passed in
// [EngineConfig.ExitFailureReason]. An exit-on-fail console processor
// records into it only if its [ConsoleResultProcessorConfig] holds the same
// pointer; when the engine config left the field nil, [NewEngine] creates a
// fresh cell here that no processor writes to.
func (e *Engine) ExitFailureReason() *ExitFailureReason { return e.cfg.ExitFailureReason }

// RunWarmupPings runs WarmupCount probes on a single worker and blocks
// until they complete. If WarmupCount is zero, this is a no-op.
func (e *Engine) RunWarmupPings(ctx context.Context) error {
	if e.cfg.WarmupCount == 0 {
		return nil
	}

	count := e.cfg.WarmupCount
	portPicker := NewPortPicker(&count, e.cfg.SourcePorts, 0)

	var wg sync.WaitGroup
	errs := make(chan error, 1)
	e.spawnWorkers(ctx, &wg, 1, portPicker, true, errs)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// StartNormalPings starts ParallelPingCount workers sharing one port
// picker, skipping the WarmupCount ports already used during warmup. It
// returns immediately; workers run until the port picker is exhausted or
// [*Engine.StopEvent] fires. Call [*Engine.Join] to wait for them.
//
// If the stop event is already set (e.g. an exit-on-fail processor fired
// during warmup), this is a no-op.
func (e *Engine) StartNormalPings(ctx context.Context) {
	if e.stopEvent.IsSet() {
		return
	}

	var adjustedCount *uint32
	if e.cfg.PingCount != nil {
		total := *e.cfg.PingCount + e.cfg.WarmupCount
		adjustedCount = &total
	}

	portPicker := NewPortPicker(adjustedCount, e.cfg.SourcePorts, e.cfg.WarmupCount)
	errs := make(chan error, int(e.cfg.ParallelPingCount))
	e.spawnWorkers(ctx, &e.workerWG, e.cfg.ParallelPingCount, portPicker, false, errs)

	go func() {
		e.workerWG.Wait()
		close(errs)
	}()
}

func (e *Engine) spawnWorkers(ctx context.Context, wg *sync.WaitGroup, count uint32, portPicker *PortPicker, isWarmup bool, errs chan<- error) {
	for id := uint32(0); id < count; id++ {
		client, err := e.cfg.Factory.New(e.cfg.Protocol)
		if err != nil {
			errs <- fmt.Errorf("rnp: starting worker %d: %w", id, err)
			continue
		}

		workerCfg := ProbeWorkerConfig{
			SourceIP:     e.cfg.SourceIP,
			Target:       e.cfg.Target,
			PingInterval: e.cfg.PingInterval,
			IsWarmup:     isWarmup,
		}
		worker := NewProbeWorker(id, workerCfg, client, portPicker, e.stopEvent, e.results, e.cfg.TimeNow)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker.Run(ctx); err != nil {
				select {
				case errs <- err:
				default:
				}
			}
		}()
	}
}

// Join waits for every normal-phase worker spawned by
// [*Engine.StartNormalPings] to finish, then shuts the pipeline down in a
// fixed order: signal the probe-scope stop event (if not already set),
// close the result channel now that no more workers can submit to it, then
// signal the processor-scope stop event and wait for the result processing
// worker to finish draining and print any summaries.
func (e *Engine) Join() {
	e.workerWG.Wait()

	e.stopEvent.Set()
	e.results.Close()
	e.processorStopEvent.Set()

	<-e.processingDone
}
