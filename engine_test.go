// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factoryWithCycle(steps []func() (*ProbeOutcome, error)) *ProbeClientFactory {
	f := &ProbeClientFactory{constructors: make(map[string]ProbeClientConstructor)}
	f.Register("test", func() ProbeClient { return &cycleProbeClient{steps: steps} })
	return f
}

func localPortRanges(t *testing.T) PortRangeList {
	t.Helper()
	r, err := ParsePortRangeList("1024-2048")
	require.NoError(t, err)
	return r
}

// TestEngineBasicFiniteRun is the S1 end-to-end scenario: ping_count=6,
// warmup=3, parallel=1, a probe client cycling through a fixed sequence of
// outcomes. Expect 3 warmup results (the first three outcomes) followed by
// 6 steady-state results (the full cycle restarting from the first).
func TestEngineBasicFiniteRun(t *testing.T) {
	cycle := []func() (*ProbeOutcome, error){
		okOutcome(10 * time.Millisecond),
		timeoutOutcome(),
		preparationFailureOutcome(),
		pingFailureOutcome(),
		handshakeWarningOutcome(20 * time.Millisecond),
		disconnectWarningOutcome(30 * time.Millisecond),
	}

	proc := &recordingProcessor{}
	pingCount := uint32(6)

	engine := NewEngine(EngineConfig{
		Target:            netip.MustParseAddrPort("127.0.0.1:443"),
		SourceIP:          netip.MustParseAddr("127.0.0.1"),
		SourcePorts:       localPortRanges(t),
		Protocol:          "test",
		Factory:           factoryWithCycle(cycle),
		PingInterval:      0,
		PingCount:         &pingCount,
		WarmupCount:       3,
		ParallelPingCount: 1,
		Processors:        []ResultProcessor{proc},
	})

	require.NoError(t, engine.RunWarmupPings(t.Context()))
	engine.StartNormalPings(t.Context())
	engine.Join()

	require.Len(t, proc.results, 9)
	for i := 0; i < 3; i++ {
		assert.True(t, proc.results[i].IsWarmup)
	}
	for i := 3; i < 9; i++ {
		assert.False(t, proc.results[i].IsWarmup)
	}
}

// TestEngineStress is the S2 scenario: ping_count=1000, warmup=0, parallel=10.
func TestEngineStress(t *testing.T) {
	cycle := []func() (*ProbeOutcome, error){okOutcome(time.Millisecond)}
	proc := &recordingProcessor{}
	pingCount := uint32(1000)

	engine := NewEngine(EngineConfig{
		Target:            netip.MustParseAddrPort("127.0.0.1:443"),
		SourceIP:          netip.MustParseAddr("127.0.0.1"),
		SourcePorts:       localPortRanges(t),
		Protocol:          "test",
		Factory:           factoryWithCycle(cycle),
		PingCount:         &pingCount,
		WarmupCount:       0,
		ParallelPingCount: 10,
		Processors:        []ResultProcessor{proc},
	})

	require.NoError(t, engine.RunWarmupPings(t.Context()))
	engine.StartNormalPings(t.Context())
	engine.Join()

	assert.Len(t, proc.results, 1000)
}

// TestEngineStopEvent is the S3 scenario: the probe-scope stop event fires
// right after warmup; the engine must still return, and the result count
// must be greater than 0 and at most the configured ping count.
func TestEngineStopEvent(t *testing.T) {
	cycle := []func() (*ProbeOutcome, error){okOutcome(time.Millisecond)}
	proc := &recordingProcessor{}
	pingCount := uint32(1000)

	engine := NewEngine(EngineConfig{
		Target:            netip.MustParseAddrPort("127.0.0.1:443"),
		SourceIP:          netip.MustParseAddr("127.0.0.1"),
		SourcePorts:       localPortRanges(t),
		Protocol:          "test",
		Factory:           factoryWithCycle(cycle),
		PingInterval:      50 * time.Millisecond,
		PingCount:         &pingCount,
		WarmupCount:       0,
		ParallelPingCount: 10,
		Processors:        []ResultProcessor{proc},
	})

	require.NoError(t, engine.RunWarmupPings(t.Context()))
	engine.StartNormalPings(t.Context())
	engine.StopEvent().Set()
	engine.Join()

	assert.Greater(t, len(proc.results), 0)
	assert.LessOrEqual(t, len(proc.results), 1000)
}

// TestEngineExitOnFail is the S4 scenario: ping_count=10, parallel=1,
// exit_on_fail=true; the client emits a failure outcome within the first
// few probes. The console processor observes the failure, sets the stop
// event from its own config, and records the failing, non-preparation
// result as the exit failure reason; the test checks both.
func TestEngineExitOnFail(t *testing.T) {
	cycle := []func() (*ProbeOutcome, error){
		okOutcome(time.Millisecond),
		okOutcome(time.Millisecond),
		pingFailureOutcome(),
	}
	pingCount := uint32(10)
	stopEvent := NewStopEvent()
	reason := NewExitFailureReason()

	console := NewConsoleResultProcessor(ConsoleResultProcessorConfig{
		ExitOnFail:        true,
		StopEvent:         stopEvent,
		ExitFailureReason: reason,
		Quiet:             true,
	})

	e := NewEngine(EngineConfig{
		Target:            netip.MustParseAddrPort("127.0.0.1:443"),
		SourceIP:          netip.MustParseAddr("127.0.0.1"),
		SourcePorts:       localPortRanges(t),
		Protocol:          "test",
		Factory:           factoryWithCycle(cycle),
		PingInterval:      time.Millisecond,
		PingCount:         &pingCount,
		WarmupCount:       0,
		ParallelPingCount: 1,
		Processors:        []ResultProcessor{console},
	})

	require.NoError(t, e.RunWarmupPings(t.Context()))
	e.StartNormalPings(t.Context())
	e.Join()

	assert.True(t, stopEvent.IsSet())

	got := reason.Get()
	require.NotNil(t, got)
	assert.False(t, got.IsSucceeded)
	assert.Nil(t, got.PreparationError)
}
