//go:build linux || darwin

package ioerr_test

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/davinci26/envoy/ioerr"
)

var retryErrno = unix.EAGAIN

var mappedCodes = map[syscall.Errno]ioerr.Code{
	unix.EAGAIN:        ioerr.CodeAgain,
	unix.EOPNOTSUPP:    ioerr.CodeNoSupport,
	unix.EAFNOSUPPORT:  ioerr.CodeAddressFamilyNoSupport,
	unix.EINPROGRESS:   ioerr.CodeInProgress,
	unix.EPERM:         ioerr.CodePermission,
	unix.EMSGSIZE:      ioerr.CodeMessageTooBig,
	unix.EINTR:         ioerr.CodeInterrupt,
	unix.EADDRNOTAVAIL: ioerr.CodeAddressNotAvailable,
}
