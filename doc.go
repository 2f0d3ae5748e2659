// SPDX-License-Identifier: GPL-3.0-or-later

// Package rnp implements layer-4 reachability probing (TCP and QUIC) with a
// pluggable worker pool and a fan-in result processing pipeline.
//
// # Core Abstraction
//
// Connection establishment is built around a single composable interface:
//
//	type Func[A, B any] interface {
//		Call(ctx context.Context, input A) (B, error)
//	}
//
// Each Func represents an atomic operation with exactly one success mode and
// one failure mode. This enables type-safe composition via [Compose2],
// [Compose3], etc., where the compiler verifies that outputs match inputs
// across pipeline stages.
//
// # Available Primitives
//
// Connection establishment:
//   - [ConnectFunc]: dials a [netip.AddrPort] over TCP or UDP
//   - [ObserveConnFunc]: observes a connection for logging I/O operations
//   - [CancelWatchFunc]: closes the connection on context cancellation, so
//     blocking I/O fails promptly when the probe's context is done
//
// Composition utilities:
//   - [Compose2] through [Compose8]: chain Funcs into pipelines
//   - [FuncAdapter]: wrap a function as a Func for ad-hoc custom behavior
//   - [Apply]: bind a fixed input to a Func
//   - [ConstFunc]: lift a pure value into a Func
//   - [NewEndpointFunc]: convenience wrapper for ConstFunc with endpoints
//
// [TCPProbeClient] composes its connect phase as a [Compose5] pipeline:
// [NewEndpointFunc] lifts the target, [ConnectFunc] dials it, a
// socket-options stage sets TTL and SO_LINGER while the concrete
// *[net.TCPConn] is still visible, then [ObserveConnFunc] and
// [CancelWatchFunc] wrap the result for I/O logging and context-bound
// cleanup. [QUICProbeClient] follows the same [ErrClassifier] and [SLogger]
// conventions but drives quic-go directly, since a QUIC handshake is not a
// dial-then-wrap pipeline.
//
// # Probing Model
//
// A [ProbeClient] prepares and executes a single probe against one endpoint,
// returning a [*ProbeOutcome] or a [*PreparationError] / [*PingError]. The
// probe worker turns either into a [ProbeResult] that is always delivered,
// successful or not: a failed connection attempt, a timeout, or a handshake
// error are all valid outcomes recorded on the result, never swallowed.
//
// The [Engine] assembles a [PortPicker], a pool of probe workers, and a
// single result processing worker into a pipeline: workers fan results into
// an unbounded channel, and the processing worker drains them in submission
// order through one or more [ResultProcessor] implementations (console,
// CSV, JSON, text, or statistical scatter/bucket loggers).
//
// # Observability
//
// All primitives support structured logging via [SLogger] (compatible with
// [log/slog]). By default, logging is disabled. Set the Logger field to a
// custom [*slog.Logger] to enable logging. Error classification is
// configurable via [ErrClassifier]. [NewConfig] defaults it to the errclass
// subpackage's platform-aware classifier; the probe clients default to
// [DefaultErrClassifier], a no-op. cmd/rnp passes the errclass classifier
// to both probe clients.
//
// Primitives emit two kinds of structured log events:
//
//   - Span events (*Start/*Done pairs): Record operation lifecycle including
//     timing and success/failure. Used for latency analysis and error tracking.
//
//   - I/O-level events (read, write, deadline changes) are emitted at
//     [slog.LevelDebug]; all other events use [slog.LevelInfo].
//
// All events share a common set of fields: localAddr, remoteAddr, protocol,
// and t (timestamp). Completion events (*Done) additionally include t0 (start
// time), err, and errClass.
//
// [TCPProbeClient] and [QUICProbeClient] call [NewSpanID] once per probe and
// wrap their logger with [WithSpanID], so every log entry produced by that
// probe shares the same spanId field, enabling correlation across pipeline
// stages even when many probe workers log concurrently.
//
// # Timeout and Context Philosophy
//
// This package is context-transparent: operations never modify the context
// they receive. The engine sets no per-probe timeout: each probe client
// bounds its own handshake by its configured WaitTimeout. The engine
// signals shutdown via [StopEvent], which the probe and result processing
// workers observe independently.
//
// Connection lifecycle requires [CancelWatchFunc] to bind the context
// lifetime to the connection: when the context is done, the connection is
// closed immediately, causing any in-progress I/O to fail. This enables
// responsive shutdown and ensures that blocking I/O respects the deadline.
package rnp
