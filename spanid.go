// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 representing a span.
//
// A span is a sequence of operations that can fail in a single, specific
// way. For example, a single TCP connect probe or a single QUIC handshake
// probe against an endpoint.
//
// We recommend using a span ID for uniquely identifying spans.
//
// The span terminology is borrowed from OTel.
//
// This function panics if the system random number generator fails,
// which should only happen under extraordinary circumstances.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}

// spanLogger wraps an [SLogger], attaching a fixed spanId attribute to
// every log call so that every line produced by a single probe can be
// correlated in structured log output.
type spanLogger struct {
	logger SLogger
	spanID string
}

// WithSpanID returns an [SLogger] that tags every message logged through it
// with spanID, generated by [NewSpanID]. Probe clients use this to let a
// single probe's connect/handshake/I-O log lines be grouped even when many
// probe workers are logging concurrently.
func WithSpanID(logger SLogger, spanID string) SLogger {
	return &spanLogger{logger: logger, spanID: spanID}
}

var _ SLogger = &spanLogger{}

// Debug implements [SLogger].
func (l *spanLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, append(args, "spanId", l.spanID)...)
}

// Info implements [SLogger].
func (l *spanLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, append(args, "spanId", l.spanID)...)
}
