// SPDX-License-Identifier: GPL-3.0-or-later

package rnp

import (
	"io"
	"os"
	"sync"
)

var (
	tlsKeyLogOnce   sync.Once
	tlsKeyLogHandle *os.File
)

// tlsKeyLogWriter opens the file named by SSLKEYLOGFILE, if set, and returns
// it as the shared TLS key log destination for the process lifetime. This
// follows the convention used by curl, Wireshark, and browsers for offline
// decryption of captured TLS/QUIC traffic.
func tlsKeyLogWriter() io.Writer {
	tlsKeyLogOnce.Do(func() {
		path := os.Getenv("SSLKEYLOGFILE")
		if path == "" {
			return
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return
		}
		tlsKeyLogHandle = f
	})
	if tlsKeyLogHandle == nil {
		return io.Discard
	}
	return tlsKeyLogHandle
}
