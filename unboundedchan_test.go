// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnboundedChanDeliversInOrder(t *testing.T) {
	c := NewUnboundedChan[int]()
	for i := 0; i < 5; i++ {
		c.Send(i)
	}
	c.Close()

	var got []int
	for v := range c.Out() {
		got = append(got, v)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestUnboundedChanSendNeverBlocks(t *testing.T) {
	c := NewUnboundedChan[int]()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			c.Send(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked")
	}
	c.Close()
	count := 0
	for range c.Out() {
		count++
	}
	assert.Equal(t, 10000, count)
}

func TestUnboundedChanSendAfterClosePanics(t *testing.T) {
	c := NewUnboundedChan[int]()
	c.Close()
	assert.Panics(t, func() { c.Send(1) })
}

func TestUnboundedChanOutClosesAfterDrain(t *testing.T) {
	c := NewUnboundedChan[string]()
	c.Send("a")
	c.Close()

	require.Equal(t, "a", <-c.Out())
	_, ok := <-c.Out()
	assert.False(t, ok, "channel should be closed once drained")
}

func TestUnboundedChanSelectableAgainstStopEvent(t *testing.T) {
	c := NewUnboundedChan[int]()
	stop := NewStopEvent()

	stop.Set()

	select {
	case <-stop.Done():
	case v := <-c.Out():
		t.Fatalf("unexpected value %d before any Send", v)
	}

	c.Send(1)
	c.Close()
	select {
	case v, ok := <-c.Out():
		require.True(t, ok)
		assert.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("expected to receive buffered value")
	}
}
