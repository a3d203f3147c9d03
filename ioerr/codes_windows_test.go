//go:build windows

package ioerr_test

import (
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/davinci26/envoy/ioerr"
)

var retryErrno = windows.WSAEWOULDBLOCK

var mappedCodes = map[syscall.Errno]ioerr.Code{
	windows.WSAEWOULDBLOCK:   ioerr.CodeAgain,
	windows.WSAEOPNOTSUPP:    ioerr.CodeNoSupport,
	windows.WSAEAFNOSUPPORT:  ioerr.CodeAddressFamilyNoSupport,
	windows.WSAEINPROGRESS:   ioerr.CodeInProgress,
	windows.WSAEACCES:        ioerr.CodePermission,
	windows.WSAEMSGSIZE:      ioerr.CodeMessageTooBig,
	windows.WSAEINTR:         ioerr.CodeInterrupt,
	windows.WSAEADDRNOTAVAIL: ioerr.CodeAddressNotAvailable,
}
