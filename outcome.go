// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import "fmt"

// PreparationError wraps a failure that occurred before a probe could be
// attempted at all (e.g. resolving a local bind address, allocating a
// socket). A [ProbeResult] carrying a [*PreparationError] never attempted
// the probe; [ProbeResult.IsSucceeded] is always false.
type PreparationError struct {
	Err error
}

func (e *PreparationError) Error() string {
	return fmt.Sprintf("preparation failed: %s", e.Err)
}

func (e *PreparationError) Unwrap() error { return e.Err }

// PingError wraps a failure to complete the layer-4 handshake itself
// (connection refused, network unreachable, or a plain timeout). A
// [ProbeResult] carrying a [*PingError] never reached [ProbeResult.IsSucceeded].
type PingError struct {
	Err error
}

func (e *PingError) Error() string {
	return fmt.Sprintf("ping failed: %s", e.Err)
}

func (e *PingError) Unwrap() error { return e.Err }

// AppHandshakeFailedError records that an application-layer handshake
// performed after a successful layer-4 connect (e.g. a QUIC cryptographic
// handshake) failed. Unlike [PingError], this does not invalidate the probe:
// the TCP or UDP connect step already succeeded, so the result is recorded
// as successful with this error attached as a warning.
type AppHandshakeFailedError struct {
	Err error
}

func (e *AppHandshakeFailedError) Error() string {
	return fmt.Sprintf("application handshake failed: %s", e.Err)
}

func (e *AppHandshakeFailedError) Unwrap() error { return e.Err }

// DisconnectFailedError records that the probe client's graceful shutdown
// sequence after a successful probe did not observe the expected orderly
// close. Like [AppHandshakeFailedError], this is attached to an otherwise
// successful result as a warning, not treated as a probe failure.
type DisconnectFailedError struct {
	Err error
}

func (e *DisconnectFailedError) Error() string {
	return fmt.Sprintf("disconnect check failed: %s", e.Err)
}

func (e *DisconnectFailedError) Unwrap() error { return e.Err }
