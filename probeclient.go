// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"context"
	"net/netip"
	"time"
)

// ProbeOutcome is the detailed result of a single [ProbeClient.Ping] call,
// before the engine wraps it into a [ProbeResult].
type ProbeOutcome struct {
	// Source is the local endpoint the probe bound to. The zero value
	// means it could not be determined (not an error).
	Source netip.AddrPort

	// Rtt is the measured round-trip time.
	Rtt time.Duration

	// IsTimedOut is true when the probe ran to the wait timeout without
	// completing. Not an error.
	IsTimedOut bool

	// HandshakeWarning, if non-nil, is an [*AppHandshakeFailedError] on an
	// otherwise successful layer-4 connect.
	HandshakeWarning *AppHandshakeFailedError

	// DisconnectWarning, if non-nil, is a [*DisconnectFailedError] on an
	// otherwise successful probe.
	DisconnectWarning *DisconnectFailedError
}

// ProbeClient abstracts a layer-4 reachability probe implementation.
//
// Implementations: [*TCPProbeClient] and [*QUICProbeClient]. External
// probe clients can implement this interface directly and be registered
// with [ProbeClientFactory.Register].
type ProbeClient interface {
	// Protocol returns the probe client's protocol name, as recorded in
	// [ProbeResult.Protocol] (e.g. "tcp", "quic").
	Protocol() string

	// PrepareProbe performs any one-time setup needed before [Ping] can be
	// called against target, such as resolving configuration that depends
	// on the target's address family. Called once per [ProbeClient]
	// instance, before the first [Ping].
	PrepareProbe(ctx context.Context, target netip.AddrPort) error

	// Ping performs a single probe from source to target and returns a
	// [*ProbeOutcome] on success, or a [*PreparationError] / [*PingError]
	// if the probe itself could not be attempted or completed.
	//
	// A timeout is reported via [ProbeOutcome.IsTimedOut], not an error.
	Ping(ctx context.Context, source, target netip.AddrPort) (*ProbeOutcome, error)
}
