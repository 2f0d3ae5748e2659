// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVResultProcessorWritesHeaderThenRows(t *testing.T) {
	var buf bytes.Buffer
	p := NewCSVResultProcessor(&buf)

	p.Initialize()
	p.Process(ProbeResult{WorkerID: 1, Protocol: "tcp", RttInMs: 1.5})
	p.Process(ProbeResult{WorkerID: 2, Protocol: "tcp", RttInMs: 2.5})
	p.Rundown()

	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "UtcTime", rows[0][0])
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "2", rows[2][1])
}

func TestCSVResultProcessorName(t *testing.T) {
	p := NewCSVResultProcessor(&bytes.Buffer{})
	assert.Equal(t, "CsvLogger", p.Name())
}

func TestCSVResultProcessorFlushesImmediately(t *testing.T) {
	var buf bytes.Buffer
	p := NewCSVResultProcessor(&buf)
	p.Initialize()
	p.Process(ProbeResult{WorkerID: 9, Protocol: "quic", UtcTime: time.Now()})
	assert.Contains(t, buf.String(), "quic")
}
