//go:build linux || darwin

package ossys

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/davinci26/envoy/internal/netutil"
)

type sysCalls struct{}

func (sysCalls) Readv(fd Fd, bufs [][]byte) (int, error) {
	return unix.Readv(fd, bufs)
}

func (sysCalls) Writev(fd Fd, bufs [][]byte) (int, error) {
	return unix.Writev(fd, bufs)
}

func (sysCalls) Sendmsg(fd Fd, bufs [][]byte, to netip.AddrPort) (int, error) {
	var sa unix.Sockaddr
	if to.IsValid() {
		var err error
		if sa, err = sockaddr(to); err != nil {
			return 0, err
		}
	}
	return unix.SendmsgBuffers(fd, bufs, nil, sa, 0)
}

func (sysCalls) Recvmsg(fd Fd, bufs [][]byte) (int, netip.AddrPort, error) {
	n, _, _, from, err := unix.RecvmsgBuffers(fd, bufs, nil, 0)
	if err != nil {
		return 0, netip.AddrPort{}, err
	}
	return n, addrPort(from), nil
}

func (sysCalls) Bind(fd Fd, addr netip.AddrPort) error {
	sa, err := sockaddr(addr)
	if err != nil {
		return err
	}
	return unix.Bind(fd, sa)
}

func (sysCalls) Connect(fd Fd, addr netip.AddrPort) error {
	sa, err := sockaddr(addr)
	if err != nil {
		return err
	}
	return unix.Connect(fd, sa)
}

func (sysCalls) Listen(fd Fd, backlog int) error {
	return unix.Listen(fd, backlog)
}

func (sysCalls) Accept(fd Fd) (Fd, netip.AddrPort, error) {
	nfd, sa, err := accept(fd)
	if err != nil {
		return InvalidFd, netip.AddrPort{}, err
	}
	return nfd, addrPort(sa), nil
}

func (sysCalls) LocalAddr(fd Fd) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return addrPort(sa), nil
}

func (sysCalls) SetNonblock(fd Fd, nonblock bool) error {
	return netutil.SetNonblock(fd, nonblock)
}

func (sysCalls) TCPInfo(fd Fd) (TCPInfo, error) {
	return tcpInfo(fd)
}

func (sysCalls) Close(fd Fd) error {
	return unix.Close(fd)
}

// Socket 创建非阻塞 socket，network 取值与 net 包一致：tcp4/tcp6/udp4/udp6
func Socket(network string) (Fd, error) {
	var domain, typ int
	switch network {
	case "tcp4":
		domain, typ = unix.AF_INET, unix.SOCK_STREAM
	case "tcp6":
		domain, typ = unix.AF_INET6, unix.SOCK_STREAM
	case "udp4":
		domain, typ = unix.AF_INET, unix.SOCK_DGRAM
	case "udp6":
		domain, typ = unix.AF_INET6, unix.SOCK_DGRAM
	default:
		return InvalidFd, ErrUnsupportedNetwork
	}
	fd, err := unix.Socket(domain, typ, 0)
	if err != nil {
		return InvalidFd, err
	}
	if err := netutil.Prepare(fd); err != nil {
		unix.Close(fd)
		return InvalidFd, err
	}
	return fd, nil
}

// SocketPair 创建一对互联的非阻塞流式 socket
func SocketPair() ([2]Fd, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return [2]Fd{InvalidFd, InvalidFd}, err
	}
	for _, fd := range fds {
		if err := netutil.Prepare(fd); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return [2]Fd{InvalidFd, InvalidFd}, err
		}
	}
	return fds, nil
}

func sockaddr(ap netip.AddrPort) (unix.Sockaddr, error) {
	addr := ap.Addr()
	switch {
	case addr.Is4():
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}, nil
	case addr.Is6():
		return &unix.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}, nil
	}
	return nil, ErrUnsupportedAddress
}

func addrPort(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr), uint16(sa.Port))
	}
	return netip.AddrPort{}
}
