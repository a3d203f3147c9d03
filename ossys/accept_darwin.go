//go:build darwin

package ossys

import (
	"golang.org/x/sys/unix"

	"github.com/davinci26/envoy/internal/netutil"
)

// darwin 没有 accept4，接受后再补设标志
func accept(fd Fd) (Fd, unix.Sockaddr, error) {
	nfd, sa, err := unix.Accept(fd)
	if err != nil {
		return InvalidFd, nil, err
	}
	if err := netutil.Prepare(nfd); err != nil {
		unix.Close(nfd)
		return InvalidFd, nil, err
	}
	return nfd, sa, nil
}
