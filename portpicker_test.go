// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func countPtr(n uint32) *uint32 { return &n }

func drain(p *PortPicker) []uint16 {
	var out []uint16
	for {
		port, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, port)
	}
}

func TestPortPickerSinglePortRepeats(t *testing.T) {
	ranges := PortRangeList{Ranges: []RangeInclusive[uint16]{{Start: 1024, End: 1024}}}
	p := NewPortPicker(countPtr(3), ranges, 0)
	assert.Equal(t, []uint16{1024, 1024, 1024}, drain(p))
}

func TestPortPickerLimitedCount(t *testing.T) {
	ranges := PortRangeList{Ranges: []RangeInclusive[uint16]{{Start: 1024, End: 1027}}}
	p := NewPortPicker(countPtr(2), ranges, 0)
	assert.Equal(t, []uint16{1024, 1025}, drain(p))
}

func TestPortPickerCountLargerThanRange(t *testing.T) {
	ranges := PortRangeList{Ranges: []RangeInclusive[uint16]{{Start: 1024, End: 1027}}}
	p := NewPortPicker(countPtr(6), ranges, 0)
	assert.Equal(t, []uint16{1024, 1025, 1026, 1027, 1024, 1025}, drain(p))
}

func TestPortPickerMultipleRanges(t *testing.T) {
	ranges := PortRangeList{Ranges: []RangeInclusive[uint16]{
		{Start: 1024, End: 1024},
		{Start: 1025, End: 1025},
		{Start: 1026, End: 1026},
	}}
	p := NewPortPicker(countPtr(5), ranges, 0)
	assert.Equal(t, []uint16{1024, 1025, 1026, 1024, 1025}, drain(p))
}

func TestPortPickerSkip(t *testing.T) {
	ranges := PortRangeList{Ranges: []RangeInclusive[uint16]{{Start: 1024, End: 1027}}}
	p := NewPortPicker(countPtr(4), ranges, 2)
	assert.Equal(t, []uint16{1026, 1027}, drain(p))
}

func TestPortPickerUnbounded(t *testing.T) {
	ranges := PortRangeList{Ranges: []RangeInclusive[uint16]{{Start: 1024, End: 1025}}}
	p := NewPortPicker(nil, ranges, 0)
	var got []uint16
	for i := 0; i < 5; i++ {
		port, ok := p.Next()
		assert.True(t, ok)
		got = append(got, port)
	}
	assert.Equal(t, []uint16{1024, 1025, 1024, 1025, 1024}, got)
}

func TestPortPickerPanicsOnEmptyRanges(t *testing.T) {
	assert.Panics(t, func() {
		NewPortPicker(countPtr(3), PortRangeList{}, 0)
	})
}

func TestPortPickerPanicsOnZeroStart(t *testing.T) {
	assert.Panics(t, func() {
		NewPortPicker(countPtr(3), PortRangeList{Ranges: []RangeInclusive[uint16]{{Start: 0, End: 1024}}}, 0)
	})
}

func TestPortPickerPanicsOnZeroEnd(t *testing.T) {
	assert.Panics(t, func() {
		NewPortPicker(countPtr(3), PortRangeList{Ranges: []RangeInclusive[uint16]{{Start: 1024, End: 0}}}, 0)
	})
}

func TestPortPickerPanicsOnInvertedRange(t *testing.T) {
	assert.Panics(t, func() {
		NewPortPicker(countPtr(3), PortRangeList{Ranges: []RangeInclusive[uint16]{{Start: 1028, End: 1024}}}, 0)
	})
}
