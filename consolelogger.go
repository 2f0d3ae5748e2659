// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"fmt"
	"io"
	"math"
	"net/netip"
	"os"
	"strings"
	"sync"
)

// ConsoleResultProcessorConfig configures a [*ConsoleResultProcessor].
type ConsoleResultProcessorConfig struct {
	// Writer is where per-result lines and the final summary are written.
	// Defaults to [os.Stdout].
	Writer io.Writer

	// Quiet suppresses the per-result lines, keeping only the summary.
	Quiet bool

	// ExitOnFail, when true, sets StopEvent on the first non-warmup,
	// non-preparation failure, requesting that probe workers stop early.
	ExitOnFail bool

	// StopEvent is set when ExitOnFail fires. Required if ExitOnFail is true.
	StopEvent *StopEvent

	// ExitFailureReason, if non-nil, records the triggering result when
	// ExitOnFail fires, alongside setting StopEvent.
	ExitFailureReason *ExitFailureReason
}

// NewConsoleResultProcessor returns a new [*ConsoleResultProcessor].
func NewConsoleResultProcessor(cfg ConsoleResultProcessorConfig) *ConsoleResultProcessor {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}
	return &ConsoleResultProcessor{
		cfg:          cfg,
		writer:       writer,
		minLatencyUs: math.MaxFloat64,
		maxLatencyUs: -1,
	}
}

// ConsoleResultProcessor prints each result as it arrives (unless Quiet) and
// a final connect/latency summary on rundown, mirroring the CLI's default
// console output.
type ConsoleResultProcessor struct {
	cfg    ConsoleResultProcessorConfig
	writer io.Writer
	mu     sync.Mutex

	haveTarget            bool
	protocol              string
	target                netip.AddrPort
	pingCount             uint32
	successCount          uint32
	failureCount          uint32
	handshakeFailedCount  uint32
	disconnectFailedCount uint32
	minLatencyUs          float64
	maxLatencyUs          float64
	averageLatencyUs      float64
}

var _ ResultProcessor = &ConsoleResultProcessor{}

// Name implements [ResultProcessor].
func (p *ConsoleResultProcessor) Name() string { return "ConsoleLogger" }

// Initialize implements [ResultProcessor].
func (p *ConsoleResultProcessor) Initialize() {}

// Process implements [ResultProcessor].
func (p *ConsoleResultProcessor) Process(result ProbeResult) {
	p.mu.Lock()
	p.updateStatistics(result)
	p.mu.Unlock()

	if !p.cfg.Quiet {
		fmt.Fprintln(p.writer, result.String())
	}

	if p.cfg.ExitOnFail && !result.IsWarmup && !result.IsSucceeded && result.PreparationError == nil {
		if p.cfg.ExitFailureReason != nil {
			p.cfg.ExitFailureReason.Set(result)
		}
		p.cfg.StopEvent.Set()
	}
}

func (p *ConsoleResultProcessor) updateStatistics(result ProbeResult) {
	if result.IsWarmup || result.PreparationError != nil {
		return
	}

	if !p.haveTarget {
		p.haveTarget = true
		p.protocol = result.Protocol
		p.target = result.Target
	}

	p.pingCount++
	if result.IsSucceeded {
		p.successCount++
	} else {
		p.failureCount++
	}
	if result.HandshakeError != nil {
		p.handshakeFailedCount++
	}
	if result.DisconnectError != nil {
		p.disconnectFailedCount++
	}

	if result.RttInMs == 0 {
		return
	}
	latencyUs := result.RttInMs * 1000
	p.minLatencyUs = math.Min(p.minLatencyUs, latencyUs)
	p.maxLatencyUs = math.Max(p.maxLatencyUs, latencyUs)
	p.averageLatencyUs += (latencyUs - p.averageLatencyUs) / float64(p.pingCount)
}

// Rundown implements [ResultProcessor].
func (p *ConsoleResultProcessor) Rundown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.haveTarget {
		return
	}

	fmt.Fprintf(p.writer, "\n=== Connect statistics for %s %s ===\n", p.protocol, p.target)

	var warning string
	if p.handshakeFailedCount > 0 || p.disconnectFailedCount > 0 {
		var parts []string
		if p.handshakeFailedCount > 0 {
			parts = append(parts, fmt.Sprintf("App Handshake Failed = %d", p.handshakeFailedCount))
		}
		if p.disconnectFailedCount > 0 {
			parts = append(parts, fmt.Sprintf("Disconnect Failed = %d", p.disconnectFailedCount))
		}
		warning = fmt.Sprintf(" (%s)", strings.Join(parts, ", "))
	}

	failPct := float64(p.failureCount) * 100.0 / float64(p.pingCount)
	fmt.Fprintf(p.writer, "- Connects: Sent = %d, Succeeded = %d%s, Failed = %d (%.2f%%).\n",
		p.pingCount, p.successCount, warning, p.failureCount, failPct)

	if p.maxLatencyUs < 0 {
		fmt.Fprintln(p.writer, "- Round trip time: Minimum = 0ms, Maximum = 0ms, Average = 0ms.")
		return
	}
	fmt.Fprintf(p.writer, "- Round trip time: Minimum = %.2fms, Maximum = %.2fms, Average = %.2fms.\n",
		p.minLatencyUs/1000.0, p.maxLatencyUs/1000.0, p.averageLatencyUs/1000.0)
}

