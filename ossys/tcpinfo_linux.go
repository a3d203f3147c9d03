package ossys

import (
	"time"

	"golang.org/x/sys/unix"
)

func tcpInfo(fd Fd) (TCPInfo, error) {
	info, err := unix.GetsockoptTCPInfo(fd, unix.IPPROTO_TCP, unix.TCP_INFO)
	if err != nil {
		return TCPInfo{}, err
	}
	// tcpi_rtt 单位为微秒
	return TCPInfo{RTT: time.Duration(info.Rtt) * time.Microsecond}, nil
}
