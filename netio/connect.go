//go:build linux || darwin

package netio

import (
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nereusdb/ndbc/cos"
)

// DialNonBlocking performs a raw, non-blocking connect: create the socket,
// set O_NONBLOCK, call connect(2), and return immediately with a pollable fd
// regardless of whether the three-way handshake has completed. PollWritable
// waits for writability on such an fd to detect completion (or a pending
// SO_ERROR). Nothing else in the module calls either function: the
// scanner's Initiate state does no connecting, and the cluster dials with
// net.Dialer.
//
// network is "tcp" or "unix"; for "unix" host and port are ignored and path
// is the socket path.
func DialNonBlocking(network, host string, port int, path string) (fd int, sa unix.Sockaddr, err error) {
	switch network {
	case "unix":
		fd, err = unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
		if err != nil {
			return -1, nil, cos.Wrap(err, "socket(AF_UNIX)")
		}
		sa = &unix.SockaddrUnix{Name: path}
	default:
		ip, lookupErr := resolveIPv4(host)
		if lookupErr != nil {
			return -1, nil, lookupErr
		}
		fd, err = unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
		if err != nil {
			return -1, nil, cos.Wrap(err, "socket(AF_INET)")
		}
		var addr [4]byte
		copy(addr[:], ip.To4())
		sa = &unix.SockaddrInet4{Port: port, Addr: addr}
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, nil, cos.Wrap(err, "set O_NONBLOCK")
	}
	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return -1, nil, cos.NewErr(cos.DomainStream, cos.CodeStreamConnect, "connect: %v", err)
	}
	return fd, sa, nil
}

func resolveIPv4(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, cos.NewErr(cos.DomainStream, cos.CodeStreamNameResolution, "lookup %s: %v", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, cos.NewErr(cos.DomainStream, cos.CodeStreamNameResolution, "no A record for %s", host)
}

// PollWritable blocks until fd is writable (connect completed) or timeout
// elapses, returning the pending socket error if connect ultimately failed.
func PollWritable(fd int, timeout time.Duration) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	ms := int(timeout.Milliseconds())
	n, err := unix.Poll(fds, ms)
	if err != nil {
		return cos.Wrap(err, "poll")
	}
	if n == 0 {
		return cos.NewErr(cos.DomainStream, cos.CodeStreamConnect, "connect timed out after %s", timeout)
	}
	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return cos.Wrap(err, "getsockopt(SO_ERROR)")
	}
	if soErr != 0 {
		return cos.NewErr(cos.DomainStream, cos.CodeStreamConnect, "connect: %v", unix.Errno(soErr))
	}
	return nil
}
