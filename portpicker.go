// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"fmt"
	"sort"
	"sync"
)

// NewPortPicker returns a new [*PortPicker] cycling over portRanges.
//
// count, when non-nil, bounds the total number of ports [*PortPicker.Next]
// will hand out: once exhausted, [*PortPicker.Next] returns false forever.
// A nil count means the picker cycles forever.
//
// skip advances the cursor past the first skip ports before returning.
// Skipped ports count against count exactly as if they had been handed out,
// so count must include them. The engine uses this to start its normal
// phase after the ports its warmup phase used.
//
// NewPortPicker panics if portRanges is empty or any range's start or end
// is the zero port: these are programmer errors, not runtime conditions.
func NewPortPicker(count *uint32, portRanges PortRangeList, skip uint32) *PortPicker {
	if len(portRanges.Ranges) == 0 {
		panic("rnp: port picker requires at least one port range")
	}
	ranges := append([]RangeInclusive[uint16](nil), portRanges.Ranges...)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	for _, r := range ranges {
		if r.Start == 0 || r.End == 0 || r.Start > r.End {
			panic(fmt.Sprintf("rnp: invalid port range [%d, %d]", r.Start, r.End))
		}
	}

	p := &PortPicker{
		ranges:       ranges,
		remaining:    count,
		nextPort:     ranges[0].Start,
		nextRangeIdx: 0,
	}
	for i := uint32(0); i < skip; i++ {
		p.Next()
	}
	return p
}

// PortPicker hands out ports cyclically from a sorted [PortRangeList].
//
// A [*PortPicker] is safe for concurrent use: multiple probe workers can
// share one picker, each pulling the next port in the shared sequence.
type PortPicker struct {
	mu           sync.Mutex
	ranges       []RangeInclusive[uint16]
	remaining    *uint32
	nextPort     uint16
	nextRangeIdx int
}

// Next returns the next port in the sequence and true, or false if count
// ports have already been handed out.
func (p *PortPicker) Next() (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.remaining != nil {
		if *p.remaining == 0 {
			return 0, false
		}
		*p.remaining--
	}

	port := p.nextPort
	current := p.ranges[p.nextRangeIdx]
	if p.nextPort >= current.End {
		p.nextRangeIdx++
		if p.nextRangeIdx >= len(p.ranges) {
			p.nextRangeIdx = 0
		}
		p.nextPort = p.ranges[p.nextRangeIdx].Start
	} else {
		p.nextPort++
	}
	return port, true
}
