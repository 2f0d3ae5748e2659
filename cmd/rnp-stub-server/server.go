// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// stubServerConfig configures a [*stubServerTCP].
type stubServerConfig struct {
	address         string
	closeOnAccept   bool
	writeChunkSize  int
	writeCountLimit uint32
	writeDelay      time.Duration
	reportInterval  time.Duration
}

// stubServerTCP is a minimal TCP server that either closes every accepted
// connection immediately or writes back a fixed number of fixed-size
// chunks, used as a reachability target for [ProbeClient] tests.
type stubServerTCP struct {
	cfg      stubServerConfig
	listener net.Listener

	acceptedCount atomic.Uint64
}

// newStubServerTCP binds cfg.address and returns a [*stubServerTCP] ready
// to [*stubServerTCP.Run].
func newStubServerTCP(cfg stubServerConfig) (*stubServerTCP, error) {
	listener, err := net.Listen("tcp", cfg.address)
	if err != nil {
		return nil, err
	}
	return &stubServerTCP{cfg: cfg, listener: listener}, nil
}

// Close releases the listening socket.
func (s *stubServerTCP) Close() error {
	return s.listener.Close()
}

// Run accepts connections until ctx is canceled, logging a periodic
// accept-count report at cfg.reportInterval. It blocks until ctx is done
// or the listener fails.
func (s *stubServerTCP) Run(ctx context.Context) error {
	log.Info().Str("address", s.listener.Addr().String()).Msg("stub server listening")

	go s.reportLoop(ctx)

	errs := make(chan error, 1)
	go func() {
		errs <- s.acceptLoop(ctx)
	}()

	select {
	case <-ctx.Done():
		s.listener.Close()
		<-errs
		return nil
	case err := <-errs:
		return err
	}
}

func (s *stubServerTCP) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.acceptedCount.Add(1)
		go s.handleConn(conn)
	}
}

func (s *stubServerTCP) handleConn(conn net.Conn) {
	defer conn.Close()

	if s.cfg.closeOnAccept {
		return
	}

	chunk := make([]byte, s.cfg.writeChunkSize)
	for i := uint32(0); i < s.cfg.writeCountLimit && s.cfg.writeChunkSize > 0; i++ {
		if s.cfg.writeDelay > 0 {
			time.Sleep(s.cfg.writeDelay)
		}
		if _, err := conn.Write(chunk); err != nil {
			log.Debug().Err(err).Msg("write back failed")
			return
		}
	}
}

func (s *stubServerTCP) reportLoop(ctx context.Context) {
	if s.cfg.reportInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.reportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Info().Uint64("accepted", s.acceptedCount.Load()).Msg("status report")
		}
	}
}
