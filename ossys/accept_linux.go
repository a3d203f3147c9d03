//go:build linux

package ossys

import "golang.org/x/sys/unix"

func accept(fd Fd) (Fd, unix.Sockaddr, error) {
	return unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
}
