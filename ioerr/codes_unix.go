//go:build linux || darwin

package ioerr

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// EWOULDBLOCK 与 EAGAIN 同值；ENOTSUP 在 linux 上与 EOPNOTSUPP 同值，darwin 另见 codes_darwin.go
const errnoAgain = unix.EAGAIN

var codeTable = map[syscall.Errno]Code{
	unix.EAGAIN:        CodeAgain,
	unix.EOPNOTSUPP:    CodeNoSupport,
	unix.EAFNOSUPPORT:  CodeAddressFamilyNoSupport,
	unix.EINPROGRESS:   CodeInProgress,
	unix.EPERM:         CodePermission,
	unix.EMSGSIZE:      CodeMessageTooBig,
	unix.EINTR:         CodeInterrupt,
	unix.EADDRNOTAVAIL: CodeAddressNotAvailable,
}
