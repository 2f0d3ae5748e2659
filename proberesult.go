// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"time"
)

// ProbeResult is the outcome of a single probe attempt against one endpoint.
//
// A [ProbeResult] is always produced, whether or not the probe succeeded:
// preparation failures, connect failures, and timeouts are all valid,
// immutable results, never swallowed by the worker that produced them.
//
// Handshake and disconnect errors never make IsSucceeded false: they are
// recorded as warnings alongside an otherwise-successful probe, since the
// layer-4 connection itself was established.
type ProbeResult struct {
	// UtcTime is when the probe was issued.
	UtcTime time.Time

	// WorkerID identifies the probe worker that produced this result.
	WorkerID uint32

	// Protocol is the probe client's protocol name ("tcp" or "quic").
	Protocol string

	// Target is the endpoint that was probed.
	Target netip.AddrPort

	// Source is the local endpoint the probe bound to, if known. The zero
	// value means the source endpoint was never established (e.g. a
	// preparation failure).
	Source netip.AddrPort

	// IsWarmup marks a result produced during the engine's warmup phase,
	// excluded from most result processors by convention.
	IsWarmup bool

	// IsSucceeded is true if the probe reached and, where applicable,
	// handshaked with the target.
	IsSucceeded bool

	// RttInMs is the measured round-trip time in milliseconds. For a
	// timed-out probe it holds the elapsed time the probe client reported;
	// it is zero for preparation and ping errors.
	RttInMs float64

	// IsTimedOut marks a probe that ran to the configured wait timeout
	// without success. A timed-out probe is not an error: IsSucceeded is
	// false but no PreparationError or PingError is necessarily set.
	IsTimedOut bool

	// PreparationError, if non-nil, means the probe was never attempted.
	PreparationError *PreparationError

	// PingError, if non-nil, means the layer-4 handshake failed.
	PingError *PingError

	// HandshakeError, if non-nil, is an application-layer handshake warning
	// on an otherwise successful probe.
	HandshakeError *AppHandshakeFailedError

	// DisconnectError, if non-nil, is a graceful-shutdown warning on an
	// otherwise successful probe.
	DisconnectError *DisconnectFailedError
}

// csvHeader is the fixed column order of [ProbeResult.CSVRecord].
const csvHeader = "UtcTime,WorkerId,Protocol,TargetIp,TargetPort,SourceIp,SourcePort," +
	"IsWarmup,IsSucceeded,RttInMs,IsTimedOut,PreparationError,PingError,HandshakeError,DisconnectError"

// CSVHeader returns the header line for a CSV file of [ProbeResult] rows.
func CSVHeader() string { return csvHeader }

// CSVRecord formats r as one CSV row matching [CSVHeader]'s column order.
func (r ProbeResult) CSVRecord() []string {
	return []string{
		r.UtcTime.UTC().Format(time.RFC3339Nano),
		fmt.Sprintf("%d", r.WorkerID),
		r.Protocol,
		addrString(r.Target.Addr()),
		fmt.Sprintf("%d", r.Target.Port()),
		addrString(r.Source.Addr()),
		fmt.Sprintf("%d", r.Source.Port()),
		fmt.Sprintf("%t", r.IsWarmup),
		fmt.Sprintf("%t", r.IsSucceeded),
		fmt.Sprintf("%.3f", r.RttInMs),
		fmt.Sprintf("%t", r.IsTimedOut),
		errString(r.PreparationError),
		errString(r.PingError),
		errString(r.HandshakeError),
		errString(r.DisconnectError),
	}
}

// probeResultJSON is the camelCase wire schema for [ProbeResult].
type probeResultJSON struct {
	UtcTime        time.Time `json:"utcTime"`
	WorkerID       uint32    `json:"workerId"`
	Protocol       string    `json:"protocol"`
	TargetIP       string    `json:"targetIp"`
	TargetPort     uint16    `json:"targetPort"`
	SourceIP       string    `json:"sourceIp"`
	SourcePort     uint16    `json:"sourcePort"`
	IsWarmup       bool      `json:"isWarmup"`
	IsSucceeded    bool      `json:"isSucceeded"`
	RttInMs        float64   `json:"rttInMs"`
	IsTimedOut     bool      `json:"isTimedOut"`
	PreparationErr string    `json:"preparationError"`
	PingErr        string    `json:"pingError"`
	HandshakeErr   string    `json:"handshakeError"`
	DisconnectErr  string    `json:"disconnectError"`
}

// toJSON converts r to the camelCase wire schema described in the external
// interfaces documentation.
func (r ProbeResult) toJSON() probeResultJSON {
	return probeResultJSON{
		UtcTime:        r.UtcTime.UTC(),
		WorkerID:       r.WorkerID,
		Protocol:       r.Protocol,
		TargetIP:       addrString(r.Target.Addr()),
		TargetPort:     r.Target.Port(),
		SourceIP:       addrString(r.Source.Addr()),
		SourcePort:     r.Source.Port(),
		IsWarmup:       r.IsWarmup,
		IsSucceeded:    r.IsSucceeded,
		RttInMs:        r.RttInMs,
		IsTimedOut:     r.IsTimedOut,
		PreparationErr: errString(r.PreparationError),
		PingErr:        errString(r.PingError),
		HandshakeErr:   errString(r.HandshakeError),
		DisconnectErr:  errString(r.DisconnectError),
	}
}

// MarshalJSON implements [encoding/json.Marshaler].
func (r ProbeResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toJSON())
}

// String formats r for human-readable console and text-log output.
func (r ProbeResult) String() string {
	status := "failed"
	if r.IsSucceeded {
		status = "succeeded"
	}
	if r.IsTimedOut {
		status = "timed out"
	}
	return fmt.Sprintf("[worker %d] %s probe %s -> %s: %s (%.3fms)",
		r.WorkerID, r.Protocol, r.Source, r.Target, status, r.RttInMs)
}

func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
