//go:build windows

package ioerr

import (
	"syscall"

	"golang.org/x/sys/windows"
)

const errnoAgain = windows.WSAEWOULDBLOCK

var codeTable = map[syscall.Errno]Code{
	windows.WSAEWOULDBLOCK:   CodeAgain,
	windows.WSAEOPNOTSUPP:    CodeNoSupport,
	windows.WSAEAFNOSUPPORT:  CodeAddressFamilyNoSupport,
	windows.WSAEINPROGRESS:   CodeInProgress,
	windows.WSAEACCES:        CodePermission,
	windows.WSAEMSGSIZE:      CodeMessageTooBig,
	windows.WSAEINTR:         CodeInterrupt,
	windows.WSAEADDRNOTAVAIL: CodeAddressNotAvailable,
}
