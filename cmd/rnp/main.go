// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bassosimone/rnp"
	"github.com/bassosimone/rnp/errclass"
	"github.com/spf13/cobra"
)

var opts options

var rootCmd = &cobra.Command{
	Use:   "rnp target",
	Short: "Layer-4 reachability prober over TCP and QUIC",
	Long: `rnp sends repeated connect/handshake probes against a single
target endpoint from a pool of local source ports, and reports
per-probe results plus aggregate statistics.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts.target = args[0]
		return run(cmd, &opts)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&opts.protocol, "mode", "m", "tcp", "protocol to use (tcp or quic)")
	flags.StringVarP(&opts.sourceIP, "source-ip", "s", "0.0.0.0", "source IP address")
	flags.Uint16Var(&opts.sourcePortMin, "source-port-min", 0, "first source port to use (0: pick randomly)")
	flags.Uint16Var(&opts.sourcePortMax, "source-port-max", 0, "last source port to use")
	flags.StringVar(&opts.sourcePortList, "source-port-list", "", "comma-separated explicit source port list, overrides min/max")
	flags.IntVarP(&opts.pingCount, "count", "c", 4, "ping count")
	flags.BoolVarP(&opts.untilStopped, "until-stopped", "t", false, "ping until stopped (Ctrl-C)")
	flags.Uint32Var(&opts.warmupCount, "warmup-count", 1, "warm-up ping count")
	flags.Uint32VarP(&opts.waitTimeoutMs, "wait-timeout", "w", 2000, "wait timeout per ping, in milliseconds")
	flags.Uint32VarP(&opts.pingIntervalMs, "interval", "i", 1000, "sleep between pings, in milliseconds")
	flags.IntVar(&opts.timeToLive, "ttl", 0, "time to live (0: platform default)")
	flags.BoolVar(&opts.useFinInTCPPing, "use-fin-in-tcp-ping", false, "use a graceful FIN shutdown instead of an immediate RST")
	flags.Uint32Var(&opts.waitBeforeDisconnectMs, "wait-before-disconnect", 0, "delay before the disconnect check, in milliseconds")
	flags.Uint32Var(&opts.disconnectTimeoutMs, "disconnect-timeout", 0, "bound on the disconnect check's drain read, in milliseconds (0: no bound)")
	flags.Uint32VarP(&opts.parallelCount, "parallel", "p", 1, "count of pings running in parallel")
	flags.StringVar(&opts.serverName, "server-name", "", "server name used for QUIC SNI/ALPN")
	flags.BoolVar(&opts.logTLSKey, "log-tls-key", false, "write TLS key log lines to $SSLKEYLOGFILE")
	flags.StringVar(&opts.alpnProtocol, "alpn", "", "ALPN protocol offered in the QUIC handshake")
	flags.CountVarP(&opts.quiet, "quiet", "q", "suppress output (repeatable: -q per-probe lines, -qq also summary, -qqq everything)")
	flags.StringVar(&opts.csvLogPath, "log-csv", "", "log ping results to a CSV file")
	flags.StringVar(&opts.jsonLogPath, "log-json", "", "log ping results to a JSON file")
	flags.StringVar(&opts.textLogPath, "log-text", "", "log ping results to a text file")
	flags.BoolVarP(&opts.showResultScatter, "show-result-scatter", "r", false, "show a pass/fail scatter map after pinging is done")
	flags.BoolVarP(&opts.showLatencyScatter, "show-latency-scatter", "l", false, "show a latency scatter map after pinging is done")
	flags.StringVarP(&opts.latencyBuckets, "latency-buckets", "b", "", "comma-separated latency bucket bounds in milliseconds (empty or 0: use the default bucket list)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, o *options) error {
	warn := func(format string, args ...any) {
		fmt.Fprintf(cmd.ErrOrStderr(), "rnp: warning: "+format+"\n", args...)
	}
	if cmd.Flags().Changed("latency-buckets") && strings.TrimSpace(o.latencyBuckets) == "" {
		o.latencyBuckets = "0"
	}
	if err := o.prepareToUse(warn); err != nil {
		return err
	}

	portRanges, err := rnp.ParsePortRangeList(o.portRangeSpec())
	if err != nil {
		return fmt.Errorf("rnp: %w", err)
	}

	processors, closers, err := buildProcessors(o)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	if err != nil {
		return err
	}

	classifier := rnp.ErrClassifierFunc(errclass.New)

	factory := rnp.NewProbeClientFactory(
		rnp.TCPProbeClientConfig{
			WaitTimeout:          msDuration(o.waitTimeoutMs),
			TimeToLive:           o.timeToLive,
			CheckDisconnect:      o.useFinInTCPPing,
			WaitBeforeDisconnect: msDuration(o.waitBeforeDisconnectMs),
			DisconnectTimeout:    msDuration(o.disconnectTimeoutMs),
			ErrClassifier:        classifier,
		},
		rnp.QUICProbeClientConfig{
			WaitTimeout:   msDuration(o.waitTimeoutMs),
			TimeToLive:    o.timeToLive,
			ServerName:    o.serverName,
			ALPNProtocol:  o.alpnProtocol,
			LogTLSKey:     o.logTLSKey,
			ErrClassifier: classifier,
		},
	)

	var pingCount *uint32
	if !o.untilStopped {
		n := uint32(o.pingCount)
		pingCount = &n
	}

	engine := rnp.NewEngine(rnp.EngineConfig{
		Target:            o.resolvedTarget,
		SourceIP:          o.resolvedSourceIP,
		SourcePorts:       portRanges,
		Protocol:          strings.ToLower(o.protocol),
		Factory:           factory,
		PingInterval:      msDuration(o.pingIntervalMs),
		PingCount:         pingCount,
		WarmupCount:       o.warmupCount,
		ParallelPingCount: o.parallelCount,
		Processors:        processors,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	go func() {
		<-ctx.Done()
		engine.StopEvent().Set()
	}()

	if err := engine.RunWarmupPings(ctx); err != nil {
		warn("warmup failed: %s", err)
	}
	engine.StartNormalPings(ctx)
	engine.Join()

	return nil
}

func msDuration(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
