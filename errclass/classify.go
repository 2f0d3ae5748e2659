//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/common/errclass/errclass.go
//

// Package errclass classifies network errors into short, platform-independent
// labels suitable for structured logging and result analysis.
package errclass

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
)

// New classifies err into a short label (e.g. "econnrefused", "etimedout").
//
// The returned label is stable across platforms: the underlying unix and
// windows error codes (see [unix.go] and [windows.go]) are mapped to the
// same POSIX-style name. Errors that are not recognized fall back to
// err.Error(); a nil err classifies as the empty string.
func New(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, context.DeadlineExceeded):
		return "etimedout"
	case errors.Is(err, os.ErrDeadlineExceeded):
		return "etimedout"
	case errors.Is(err, net.ErrClosed):
		return "econnaborted"
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if label, ok := classifyErrno(errno); ok {
			return label
		}
	}

	return err.Error()
}

func classifyErrno(errno syscall.Errno) (string, bool) {
	switch errno {
	case errEADDRNOTAVAIL:
		return "eaddrnotavail", true
	case errEADDRINUSE:
		return "eaddrinuse", true
	case errECONNABORTED:
		return "econnaborted", true
	case errECONNREFUSED:
		return "econnrefused", true
	case errECONNRESET:
		return "econnreset", true
	case errEHOSTUNREACH:
		return "ehostunreach", true
	case errEINVAL:
		return "einval", true
	case errEINTR:
		return "eintr", true
	case errENETDOWN:
		return "enetdown", true
	case errENETUNREACH:
		return "enetunreach", true
	case errENOBUFS:
		return "enobufs", true
	case errENOTCONN:
		return "enotconn", true
	case errEPROTONOSUPPORT:
		return "eprotonosupport", true
	case errETIMEDOUT:
		return "etimedout", true
	default:
		return "", false
	}
}
