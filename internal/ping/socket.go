// Copyright 2024 the qnetd authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ping

import (
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Syscalls swappable for tests.
var (
	sendmsg = unix.SendmsgN
	poll    = unix.Poll
)

// Socket is a raw ICMP socket plus the echo identifier that
// distinguishes this process's pings from others on the host.
type Socket struct {
	fd int
	id uint16
}

// Open opens a raw ICMP socket. This requires root or CAP_NET_RAW;
// unprivileged callers get a permission error. A daemon can open the
// socket before dropping privileges and keep pinging afterwards.
func Open() (*Socket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_ICMP)
	if err != nil {
		return nil, fmt.Errorf("opening raw ICMP socket (needs root or CAP_NET_RAW): %w", err)
	}
	return &Socket{fd: fd, id: uint16(os.Getpid())}, nil
}

// Close releases the socket.
func (s *Socket) Close() error {
	return unix.Close(s.fd)
}

// Ping sends one echo request to addr and waits for a matching reply.
// A zero timeout blocks indefinitely and fails immediately on the
// first packet that doesn't validate. A positive timeout bounds the
// whole wait with a wall-clock deadline; packets that fail validation
// are skipped and the wait re-armed against the same deadline, which
// tolerates stray ICMP traffic sharing the raw socket.
func (s *Socket) Ping(addr net.IP, seq uint16, timeout time.Duration) (Result, error) {
	ip4 := addr.To4()
	if ip4 == nil {
		return SystemError, fmt.Errorf("%v is not an IPv4 address", addr)
	}
	sa := &unix.SockaddrInet4{}
	copy(sa.Addr[:], ip4)

	if err := s.send(marshalEcho(s.id, seq), sa); err != nil {
		recordResult(SystemError)
		return SystemError, err
	}
	recordSent()

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	result, err := s.awaitReply(deadline)
	recordResult(result)
	return result, err
}

// send puts one echo request on the wire. A short write is never
// success, and a datagram can't be completed piecemeal, so the whole
// packet is resent.
func (s *Socket) send(pkt []byte, sa unix.Sockaddr) error {
	for {
		n, err := sendmsg(s.fd, pkt, nil, sa, 0)
		if err != nil {
			return fmt.Errorf("sending echo request: %w", err)
		}
		if n == len(pkt) {
			return nil
		}
	}
}

// awaitReply reads datagrams off the socket until one classifies
// conclusively. deadline is the wall-clock cutoff, or the zero time
// to wait forever. With a deadline, packets that fail validation are
// skipped and the wait re-armed against the same deadline; without
// one, the first packet is all we'll ever get, so its validation
// failure is final.
func (s *Socket) awaitReply(deadline time.Time) (Result, error) {
	buf := make([]byte, 256)
	for {
		ready, err := s.wait(deadline)
		if err != nil {
			return SystemError, err
		}
		if !ready {
			return Timeout, nil
		}

		n, _, err := unix.Recvfrom(s.fd, buf, 0)
		if err != nil {
			return SystemError, fmt.Errorf("receiving reply: %w", err)
		}

		result := classify(buf[:n], s.id)
		switch result {
		case InvalidSize, InvalidChecksum, InvalidID:
			if !deadline.IsZero() {
				continue
			}
		}
		return result, nil
	}
}

// wait blocks until the socket is readable. deadline is the
// wall-clock cutoff, or the zero time to wait forever. It returns
// false when the deadline elapsed with nothing to read. A signal
// interrupting a bounded wait re-arms it against the same deadline;
// one interrupting an unbounded wait surfaces as an error so the
// caller stays interruptible.
func (s *Socket) wait(deadline time.Time) (bool, error) {
	for {
		waitMs := -1
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return false, nil
			}
			waitMs = int(remaining.Milliseconds())
			if waitMs == 0 {
				waitMs = 1
			}
		}

		fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
		n, err := poll(fds, waitMs)
		if err == unix.EINTR {
			if deadline.IsZero() {
				return false, fmt.Errorf("waiting for reply: %w", err)
			}
			continue
		}
		if err != nil {
			return false, fmt.Errorf("waiting for reply: %w", err)
		}
		if n == 0 {
			return false, nil
		}
		return true, nil
	}
}

// PingHost resolves host and pings it on this socket.
func (s *Socket) PingHost(host string, seq uint16, timeout time.Duration) (Result, error) {
	ip, result, err := DefaultResolver.Resolve(host)
	if result != Success {
		recordResult(result)
		return result, err
	}
	return s.Ping(ip, seq, timeout)
}

// HostOnce opens a private socket, pings host once and closes the
// socket, preserving the ping outcome across the close.
func HostOnce(host string, seq uint16, timeout time.Duration) (Result, error) {
	s, err := Open()
	if err != nil {
		recordResult(SystemError)
		return SystemError, err
	}
	defer s.Close()
	return s.PingHost(host, seq, timeout)
}

// AddrOnce opens a private socket, pings addr once and closes the
// socket, preserving the ping outcome across the close.
func AddrOnce(addr net.IP, seq uint16, timeout time.Duration) (Result, error) {
	s, err := Open()
	if err != nil {
		recordResult(SystemError)
		return SystemError, err
	}
	defer s.Close()
	return s.Ping(addr, seq, timeout)
}
