// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type serverOptions struct {
	address          string
	protocol         string
	reportIntervalMs uint64
	closeOnAccept    bool
	writeChunkSize   int
	writeCountLimit  uint32
	writeDelayMs     uint64
}

var opts serverOptions

var rootCmd = &cobra.Command{
	Use:   "rnp-stub-server server_address",
	Short: "Minimal collaborator server for exercising rnp probes",
	Long: `rnp-stub-server accepts connections on server_address and either
closes them immediately or writes a configurable number of fixed-size
chunks back to the client, reporting accept counts periodically.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts.address = args[0]
		return run(&opts)
	},
}

func init() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.protocol, "mode", "m", "tcp", "protocol to serve (only tcp is currently supported)")
	flags.Uint64VarP(&opts.reportIntervalMs, "report-interval", "r", 1000, "interval between status reports, in milliseconds")
	flags.BoolVar(&opts.closeOnAccept, "close-on-accept", false, "close the connection immediately after accepting it")
	flags.BoolVar(&opts.closeOnAccept, "coa", false, "alias for --close-on-accept")
	flags.IntVarP(&opts.writeChunkSize, "write-chunk-size", "w", 0, "if not 0, write this many bytes back after accepting")
	flags.Uint32Var(&opts.writeCountLimit, "write-count-limit", 1, "how many chunks to write back")
	flags.Uint32Var(&opts.writeCountLimit, "wc", 1, "alias for --write-count-limit")
	flags.Uint64Var(&opts.writeDelayMs, "write-delay", 0, "delay before each write back, in milliseconds")
	flags.Uint64Var(&opts.writeDelayMs, "wd", 0, "alias for --write-delay")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(o *serverOptions) error {
	if strings.ToLower(o.protocol) != "tcp" {
		log.Fatal().Str("protocol", o.protocol).Msg("protocol not supported")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := stubServerConfig{
		address:         o.address,
		closeOnAccept:   o.closeOnAccept,
		writeChunkSize:  o.writeChunkSize,
		writeCountLimit: o.writeCountLimit,
		writeDelay:      time.Duration(o.writeDelayMs) * time.Millisecond,
		reportInterval:  time.Duration(o.reportIntervalMs) * time.Millisecond,
	}

	server, err := newStubServerTCP(cfg)
	if err != nil {
		return err
	}
	defer server.Close()

	return server.Run(ctx)
}
