// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"math/rand"
	"net/netip"
	"strconv"
	"strings"
)

// defaultLatencyBuckets is used when --latency-buckets is given empty or as
// "0"; when the flag is not given, no latency bucket processor is registered.
var defaultLatencyBuckets = []float64{0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 50.0, 100.0, 300.0, 500.0}

// options holds every rnp CLI flag, before and after [*options.prepareToUse]
// validates them and applies its auto-corrections.
type options struct {
	target string

	protocol string

	sourceIP       string
	sourcePortMin  uint16
	sourcePortMax  uint16
	sourcePortList string

	pingCount              int
	untilStopped           bool
	warmupCount            uint32
	waitTimeoutMs          uint32
	pingIntervalMs         uint32
	timeToLive             int
	useFinInTCPPing        bool
	waitBeforeDisconnectMs uint32
	disconnectTimeoutMs    uint32
	parallelCount          uint32
	serverName             string
	logTLSKey              bool
	alpnProtocol           string
	quiet                  int
	csvLogPath             string
	jsonLogPath            string
	textLogPath            string
	showResultScatter      bool
	showLatencyScatter     bool
	latencyBuckets         string

	// resolved, set by prepareToUse
	resolvedTarget     netip.AddrPort
	resolvedSourceIP   netip.Addr
	resolvedPortRanges PortRangeListSource
	resolvedBuckets    []float64
}

// PortRangeListSource is either an explicit comma-separated port list or a
// min/max range, resolved into rnp's [rnp.PortRangeList] text notation by
// [*options.portRangeSpec].
type PortRangeListSource struct {
	List    []uint16
	HasList bool
	Min     uint16
	Max     uint16
}

// prepareToUse applies the CLI's auto-corrections in a fixed order and
// resolves string flags into typed values. Warnings about corrected
// values are written to stderr rather than silently applied.
func (o *options) prepareToUse(warn func(format string, args ...any)) error {
	target, err := netip.ParseAddrPort(o.target)
	if err != nil {
		return fmt.Errorf("rnp: invalid target %q (expected ip:port): %w", o.target, err)
	}
	o.resolvedTarget = target

	sourceIP, err := netip.ParseAddr(o.sourceIP)
	if err != nil {
		return fmt.Errorf("rnp: invalid source IP %q: %w", o.sourceIP, err)
	}

	if target.Addr().Is4() != sourceIP.Is4() {
		switch {
		case sourceIP.Is4() && sourceIP == netip.IPv4Unspecified():
			sourceIP = netip.IPv6Unspecified()
		case sourceIP.Is6() && sourceIP == netip.IPv6Unspecified():
			sourceIP = netip.IPv4Unspecified()
		default:
			return fmt.Errorf("rnp: source IP and target IP are not both IPv4 or IPv6")
		}
	}
	o.resolvedSourceIP = sourceIP

	var portList []uint16
	hasList := strings.TrimSpace(o.sourcePortList) != ""
	if hasList {
		for _, s := range strings.Split(o.sourcePortList, ",") {
			p, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
			if err != nil {
				return fmt.Errorf("rnp: invalid --source-port-list entry %q: %w", s, err)
			}
			portList = append(portList, uint16(p))
		}
	}

	min, max := o.sourcePortMin, o.sourcePortMax
	if !hasList {
		if min == 0 {
			min = uint16(10000 + rand.Intn(20000))
			max = min + 10000
		}
		if min > max {
			warn("min source port is larger than max, swapping to fix")
			min, max = max, min
		}
	}
	o.resolvedPortRanges = PortRangeListSource{List: portList, HasList: hasList, Min: min, Max: max}

	if !o.untilStopped && o.pingCount < 1 {
		warn("ping count cannot be less than 1, setting to 1 as minimum")
		o.pingCount = 1
	}

	availableSourcePortCount := uint32(max) - uint32(min) + 1
	if hasList {
		availableSourcePortCount = uint32(len(portList))
	}
	if o.parallelCount > availableSourcePortCount {
		warn("parallel ping count (%d) is larger than available source port count (%d), reducing to match",
			o.parallelCount, availableSourcePortCount)
		o.parallelCount = availableSourcePortCount
	}
	if o.parallelCount < 1 {
		warn("parallel ping count cannot be 0, setting to 1 as minimum")
		o.parallelCount = 1
	}

	o.resolvedBuckets = defaultLatencyBuckets
	if strings.TrimSpace(o.latencyBuckets) != "" {
		var buckets []float64
		for _, s := range strings.Split(o.latencyBuckets, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return fmt.Errorf("rnp: invalid --latency-buckets entry %q: %w", s, err)
			}
			buckets = append(buckets, v)
		}
		if len(buckets) == 0 || (len(buckets) == 1 && buckets[0] == 0.0) {
			buckets = defaultLatencyBuckets
		}
		o.resolvedBuckets = buckets
	}

	return nil
}

// portRangeSpec renders the resolved port configuration into the comma
// notation [rnp.ParsePortRangeList] accepts.
func (o *options) portRangeSpec() string {
	if o.resolvedPortRanges.HasList {
		parts := make([]string, len(o.resolvedPortRanges.List))
		for i, p := range o.resolvedPortRanges.List {
			parts[i] = strconv.Itoa(int(p))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("%d-%d", o.resolvedPortRanges.Min, o.resolvedPortRanges.Max)
}
