// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/netip"
	"time"

	"github.com/quic-go/quic-go"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// QUICProbeClientConfig configures a [*QUICProbeClient].
type QUICProbeClientConfig struct {
	// WaitTimeout bounds the QUIC handshake and doubles as the connection's
	// max idle timeout.
	WaitTimeout time.Duration

	// TimeToLive sets the IP TTL (hop limit) on the probe's UDP socket.
	// Zero means leave the platform default.
	TimeToLive int

	// ServerName is the TLS server name used for SNI and ALPN negotiation.
	// Certificate verification is always skipped: rnp probes reachability,
	// not certificate validity.
	ServerName string

	// ALPNProtocol, if non-empty, is offered as the sole ALPN protocol.
	ALPNProtocol string

	// LogTLSKey, when true, writes TLS key log lines to the file named by
	// the SSLKEYLOGFILE environment variable, for offline decryption while
	// debugging.
	LogTLSKey bool

	// UseTimerRTT, when true, uses the probe's own wall-clock measurement
	// as the reported RTT instead of quic-go's internal RTT estimate.
	UseTimerRTT bool

	// Logger is the [SLogger] used for structured logging.
	Logger SLogger

	// ErrClassifier classifies connect errors for structured logging.
	ErrClassifier ErrClassifier

	// TimeNow returns the current time (configurable for testing).
	TimeNow func() time.Time
}

// NewQUICProbeClient returns a new [*QUICProbeClient] built from cfg.
func NewQUICProbeClient(cfg QUICProbeClientConfig) *QUICProbeClient {
	logger := cfg.Logger
	if logger == nil {
		logger = DefaultSLogger()
	}
	classifier := cfg.ErrClassifier
	if classifier == nil {
		classifier = DefaultErrClassifier
	}
	timeNow := cfg.TimeNow
	if timeNow == nil {
		timeNow = time.Now
	}
	return &QUICProbeClient{cfg: cfg, logger: logger, classifier: classifier, timeNow: timeNow}
}

// QUICProbeClient probes reachability by attempting a QUIC cryptographic
// handshake. See the package documentation's "Probing Model" section.
//
// Unlike [TCPProbeClient], the connect step is not expressed as a [Func]
// pipeline: quic-go's handshake is a single call that already reports
// success, timeout, and post-handshake application errors distinctly, so
// composing [ConnectFunc] around it would only obscure that distinction.
type QUICProbeClient struct {
	cfg        QUICProbeClientConfig
	logger     SLogger
	classifier ErrClassifier
	timeNow    func() time.Time
}

var _ ProbeClient = &QUICProbeClient{}

// Protocol implements [ProbeClient].
func (c *QUICProbeClient) Protocol() string { return "quic" }

// PrepareProbe implements [ProbeClient]. QUIC probing requires no
// target-dependent preparation.
func (c *QUICProbeClient) PrepareProbe(ctx context.Context, target netip.AddrPort) error {
	return nil
}

// Ping implements [ProbeClient].
//
// A QUIC connection error other than a timeout or local cancellation still
// means the endpoint answered our packets at the transport level, so it is
// recorded as an [*AppHandshakeFailedError] warning on an otherwise
// successful probe, not as a [*PingError].
func (c *QUICProbeClient) Ping(ctx context.Context, source, target netip.AddrPort) (*ProbeOutcome, error) {
	udpConn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(source))
	if err != nil {
		return nil, &PreparationError{Err: err}
	}
	defer udpConn.Close()

	if c.cfg.TimeToLive > 0 {
		if target.Addr().Is4() || target.Addr().Is4In6() {
			_ = ipv4.NewConn(udpConn).SetTTL(c.cfg.TimeToLive)
		} else {
			_ = ipv6.NewConn(udpConn).SetHopLimit(c.cfg.TimeToLive)
		}
	}

	tr := &quic.Transport{Conn: udpConn}
	defer tr.Close()

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         c.cfg.ServerName,
	}
	if c.cfg.ALPNProtocol != "" {
		tlsConfig.NextProtos = []string{c.cfg.ALPNProtocol}
	}
	if c.cfg.LogTLSKey {
		tlsConfig.KeyLogWriter = tlsKeyLogWriter()
	}

	quicConfig := &quic.Config{
		MaxIdleTimeout:       c.cfg.WaitTimeout,
		HandshakeIdleTimeout: c.cfg.WaitTimeout,
	}

	logger := WithSpanID(c.logger, NewSpanID())

	t0 := c.timeNow()
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.WaitTimeout)
	defer cancel()

	logger.Info("quicHandshakeStart", "remoteAddr", target.String())
	conn, err := tr.Dial(dialCtx, net.UDPAddrFromAddrPort(target), tlsConfig, quicConfig)
	rtt := c.timeNow().Sub(t0)
	logger.Info("quicHandshakeDone", "remoteAddr", target.String(), "err", err, "errClass", c.classifier.Classify(err))

	if err != nil {
		var idleErr *quic.IdleTimeoutError
		var handshakeTimeoutErr *quic.HandshakeTimeoutError
		if errors.As(err, &idleErr) || errors.As(err, &handshakeTimeoutErr) || errors.Is(err, context.DeadlineExceeded) {
			return &ProbeOutcome{Rtt: rtt, IsTimedOut: true}, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, &PingError{Err: err}
		}
		// The endpoint answered at the UDP level but something above it
		// (e.g. ALPN negotiation) rejected us: the path is reachable.
		return &ProbeOutcome{Rtt: rtt, HandshakeWarning: &AppHandshakeFailedError{Err: err}}, nil
	}
	defer conn.CloseWithError(0, "")

	if !c.cfg.UseTimerRTT {
		rtt = conn.RTT()
	}

	localAddr, _ := netip.ParseAddrPort(udpConn.LocalAddr().String())
	return &ProbeOutcome{Source: localAddr, Rtt: rtt}, nil
}
