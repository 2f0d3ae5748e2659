// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// TCPProbeClientConfig configures a [*TCPProbeClient].
type TCPProbeClientConfig struct {
	// WaitTimeout bounds how long a single connect attempt may take.
	WaitTimeout time.Duration

	// TimeToLive sets the IP TTL (hop limit) on probe sockets. Zero means
	// leave the platform default.
	TimeToLive int

	// CheckDisconnect, when true, performs a graceful shutdown-then-drain
	// sequence after a successful connect and records any deviation as a
	// [*DisconnectFailedError] warning rather than discarding the
	// connection immediately with SO_LINGER set to zero.
	CheckDisconnect bool

	// WaitBeforeDisconnect delays the shutdown sequence, giving the peer
	// time to send any trailing data before the socket closes.
	WaitBeforeDisconnect time.Duration

	// DisconnectTimeout bounds the post-shutdown drain read started by
	// [*TCPProbeClient.shutdownAndDrain]. Zero leaves the read without a
	// deadline of its own, relying on the outer context (via
	// [CancelWatchFunc]) to eventually unblock it.
	DisconnectTimeout time.Duration

	// Logger is the [SLogger] used for structured logging of the connect
	// phase. Defaults to a no-op logger.
	Logger SLogger

	// ErrClassifier classifies connect errors for structured logging.
	ErrClassifier ErrClassifier

	// TimeNow returns the current time (configurable for testing).
	TimeNow func() time.Time
}

// NewTCPProbeClient returns a new [*TCPProbeClient] built from cfg.
func NewTCPProbeClient(cfg TCPProbeClientConfig) *TCPProbeClient {
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
	return &TCPProbeClient{cfg: cfg, logger: logger, classifier: classifier, timeNow: timeNow}
}

// TCPProbeClient probes reachability by attempting a TCP three-way
// handshake. See the package documentation's "Probing Model" section.
type TCPProbeClient struct {
	cfg        TCPProbeClientConfig
	logger     SLogger
	classifier ErrClassifier
	timeNow    func() time.Time
}

var _ ProbeClient = &TCPProbeClient{}

// Protocol implements [ProbeClient].
func (c *TCPProbeClient) Protocol() string { return "tcp" }

// PrepareProbe implements [ProbeClient]. TCP probing requires no
// target-dependent preparation.
func (c *TCPProbeClient) PrepareProbe(ctx context.Context, target netip.AddrPort) error {
	return nil
}

// Ping implements [ProbeClient].
//
// The probe runs as a five-stage [Func] pipeline: [NewEndpointFunc] lifts
// the fixed target into the pipeline, [ConnectFunc] dials it, a
// socket-options stage applies TTL and SO_LINGER while the concrete
// *[net.TCPConn] is still visible, [ObserveConnFunc] wraps the connection
// for structured I/O logging, and [CancelWatchFunc] binds the connection's
// lifetime to ctx so a canceled context unblocks a drain read stuck in
// [*TCPProbeClient.shutdownAndDrain]. Socket options must be applied before
// wrapping, since [ObserveConnFunc] and [CancelWatchFunc] hide the
// connection behind a plain net.Conn.
func (c *TCPProbeClient) Ping(ctx context.Context, source, target netip.AddrPort) (*ProbeOutcome, error) {
	dialer := &net.Dialer{
		Timeout:   c.cfg.WaitTimeout,
		LocalAddr: net.TCPAddrFromAddrPort(source),
	}

	logger := WithSpanID(c.logger, NewSpanID())

	connectFunc := &ConnectFunc{
		Dialer:        dialer,
		ErrClassifier: c.classifier,
		Logger:        logger,
		Network:       "tcp",
		TimeNow:       c.timeNow,
	}

	pipeline := Compose5[Unit, netip.AddrPort, net.Conn, net.Conn, net.Conn](
		NewEndpointFunc(target),
		connectFunc,
		FuncAdapter[net.Conn, net.Conn](c.applySocketOptionsFunc),
		&ObserveConnFunc{ErrClassifier: c.classifier, Logger: logger, TimeNow: c.timeNow},
		NewCancelWatchFunc(),
	)

	t0 := c.timeNow()
	conn, err := pipeline.Call(ctx, Unit{})
	rtt := c.timeNow().Sub(t0)

	if err != nil {
		var prepErr *PreparationError
		if errors.As(err, &prepErr) {
			return nil, prepErr
		}
		if isTimeoutError(err) {
			return &ProbeOutcome{Rtt: rtt, IsTimedOut: true}, nil
		}
		return nil, &PingError{Err: err}
	}

	localAddr, _ := netip.ParseAddrPort(conn.LocalAddr().String())

	var disconnectWarning *DisconnectFailedError
	if c.cfg.CheckDisconnect {
		if err := c.shutdownAndDrain(conn); err != nil {
			disconnectWarning = &DisconnectFailedError{Err: err}
		}
	} else {
		conn.Close()
	}

	return &ProbeOutcome{
		Source:            localAddr,
		Rtt:               rtt,
		DisconnectWarning: disconnectWarning,
	}, nil
}

// applySocketOptionsFunc adapts [*TCPProbeClient.applySocketOptions] into a
// [Func] pipeline stage. On failure it closes conn and reports a
// [*PreparationError], the exact type [ProbeWorker.buildErrorResult]
// switches on.
func (c *TCPProbeClient) applySocketOptionsFunc(ctx context.Context, conn net.Conn) (net.Conn, error) {
	if err := c.applySocketOptions(conn); err != nil {
		conn.Close()
		return nil, &PreparationError{Err: err}
	}
	return conn, nil
}

func (c *TCPProbeClient) applySocketOptions(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if !c.cfg.CheckDisconnect {
		if err := tcpConn.SetLinger(0); err != nil {
			return err
		}
	}
	if c.cfg.TimeToLive > 0 {
		addr, _ := netip.ParseAddrPort(conn.LocalAddr().String())
		if addr.Addr().Is4() || addr.Addr().Is4In6() {
			if err := ipv4.NewConn(conn).SetTTL(c.cfg.TimeToLive); err != nil {
				return err
			}
		} else {
			if err := ipv6.NewConn(conn).SetHopLimit(c.cfg.TimeToLive); err != nil {
				return err
			}
		}
	}
	return nil
}

// closeWriter is implemented by connections that support a TCP half-close.
// [*net.TCPConn] implements it directly; [*observedConn] and the
// [CancelWatchFunc]-wrapped connection forward to the connection beneath.
type closeWriter interface {
	CloseWrite() error
}

// shutdownAndDrain performs the half-close disconnect check: it shuts down
// the write side, then reads until EOF or [TCPProbeClientConfig.DisconnectTimeout]
// elapses. Any error other than a clean EOF is returned as the disconnect
// warning's cause; an expired deadline surfaces here as an ordinary
// [net.Error] with Timeout() true.
func (c *TCPProbeClient) shutdownAndDrain(conn net.Conn) error {
	if c.cfg.WaitBeforeDisconnect > 0 {
		timer := time.NewTimer(c.cfg.WaitBeforeDisconnect)
		defer timer.Stop()
		<-timer.C
	}
	defer conn.Close()

	cw, ok := conn.(closeWriter)
	if !ok {
		return nil
	}
	if err := cw.CloseWrite(); err != nil {
		return err
	}

	if c.cfg.DisconnectTimeout > 0 {
		_ = conn.SetReadDeadline(c.timeNow().Add(c.cfg.DisconnectTimeout))
	}

	buf := make([]byte, 128)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			continue
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
