// Package netudp opens the collector's listen and emit UDP sockets with
// explicit receive/send buffer sizing via direct setsockopt/getsockopt
// calls.
package netudp

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/netflowd/netflowd/internal/logger"
)

// ListenWithBuffer opens a UDP listen socket on addr and requests a
// receive buffer of at least wantBytes, logging the size the kernel
// actually granted (which may be capped well below the request).
func ListenWithBuffer(addr string, wantBytes int, log *logger.Logger) (*net.UDPConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("netudp: resolve %q: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("netudp: listen %q: %w", addr, err)
	}

	if wantBytes > 0 {
		if err := setBuffer(conn, unix.SO_RCVBUF, wantBytes); err != nil {
			conn.Close()
			return nil, fmt.Errorf("netudp: set recv buffer: %w", err)
		}
	}

	if got, err := getBuffer(conn, unix.SO_RCVBUF); err == nil && log != nil {
		log.Info("listen socket opened", "addr", addr, "requested_rcvbuf", wantBytes, "actual_rcvbuf", got)
	}

	return conn, nil
}

// DialWithBuffer opens a UDP socket connected from src to dst and requests
// a send buffer of at least wantBytes.
func DialWithBuffer(src, dst string, wantBytes int, log *logger.Logger) (*net.UDPConn, error) {
	srcAddr, err := net.ResolveUDPAddr("udp", src)
	if err != nil {
		return nil, fmt.Errorf("netudp: resolve source %q: %w", src, err)
	}
	dstAddr, err := net.ResolveUDPAddr("udp", dst)
	if err != nil {
		return nil, fmt.Errorf("netudp: resolve destination %q: %w", dst, err)
	}

	conn, err := net.DialUDP("udp", srcAddr, dstAddr)
	if err != nil {
		return nil, fmt.Errorf("netudp: dial %q -> %q: %w", src, dst, err)
	}

	if wantBytes > 0 {
		if err := setBuffer(conn, unix.SO_SNDBUF, wantBytes); err != nil {
			conn.Close()
			return nil, fmt.Errorf("netudp: set send buffer: %w", err)
		}
	}

	if got, err := getBuffer(conn, unix.SO_SNDBUF); err == nil && log != nil {
		log.Info("emit socket opened", "src", src, "dst", dst, "requested_sndbuf", wantBytes, "actual_sndbuf", got)
	}

	return conn, nil
}

func setBuffer(conn *net.UDPConn, opt, size int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, opt, size)
	})
	if err != nil {
		return err
	}
	return sockErr
}

func getBuffer(conn *net.UDPConn, opt int) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}

	var size int
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		size, sockErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, opt)
	})
	if err != nil {
		return 0, err
	}
	return size, sockErr
}
