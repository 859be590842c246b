/*
 * MIT License
 *
 * Copyright (c) 2026 the reactor authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package acceptor owns the listening socket: it converts readiness on
// the listen fd into accepted connection descriptors, delivered one at a
// time to the server's new-connection callback.
package acceptor

import (
	"errors"
	"net"
	"os"
	"time"

	reuseport "github.com/kavu/go_reuseport"
	"golang.org/x/sys/unix"

	rerrors "github.com/nabbar/reactor/errors"

	"github.com/nabbar/reactor/channel"
	"github.com/nabbar/reactor/eventloop"
	"github.com/nabbar/reactor/logger"
)

func init() {
	rerrors.Register(codeListen, "failed to create listening socket")
}

const codeListen = rerrors.MinPkgAcceptor

var errUnexpectedListenerType = errors.New("reuseport/net.Listen did not return a *net.TCPListener")

// NewConnectionCallback receives an accepted, non-blocking, cloexec
// socket and the peer's address. It is called on the acceptor's loop
// thread; if unset, the fd is closed immediately.
type NewConnectionCallback func(fd int, peerAddr *net.TCPAddr)

// Acceptor owns a non-blocking IPv4 listening socket bound to addr, with
// SO_REUSEADDR always on and SO_REUSEPORT on when reusePort is true.
type Acceptor struct {
	log  logger.Logger
	file *os.File // kept open so the dup'd listening fd is not finalized shut

	listenFD int
	addr     net.Addr
	channel  *channel.Channel[Acceptor]

	onNewConnection NewConnectionCallback
}

// New constructs (but does not arm) an Acceptor on loop, which must be
// the server's main loop.
func New(loop *eventloop.EventLoop, log logger.Logger, addr string, reusePort bool) (*Acceptor, error) {
	var (
		ln  net.Listener
		err error
	)
	if reusePort {
		ln, err = reuseport.Listen("tcp", addr)
	} else {
		ln, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return nil, rerrors.Fatalf(codeListen, err)
	}

	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, rerrors.Fatalf(codeListen, errUnexpectedListenerType)
	}

	boundAddr := tcpLn.Addr()
	f, err := tcpLn.File()
	tcpLn.Close() // f holds an independent dup of the fd
	if err != nil {
		return nil, rerrors.Fatalf(codeListen, err)
	}

	fd := int(f.Fd())
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		f.Close()
		return nil, rerrors.Fatalf(codeListen, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		f.Close()
		return nil, rerrors.Fatalf(codeListen, err)
	}

	a := &Acceptor{log: log, file: f, listenFD: fd, addr: boundAddr}
	a.channel = channel.New[Acceptor](loop, log, fd)
	a.channel.SetReadHandler(a.handleRead)

	return a, nil
}

// Addr is the bound local address, useful when addr was passed with a
// wildcard port (":0") for an ephemeral one.
func (a *Acceptor) Addr() net.Addr { return a.addr }

// SetNewConnectionCallback installs cb. Call before Listen.
func (a *Acceptor) SetNewConnectionCallback(cb NewConnectionCallback) {
	a.onNewConnection = cb
}

// Listen arms the listening socket's read interest. The socket is already
// bound and listening by the time New returns; Listen only starts
// accepting on this loop.
func (a *Acceptor) Listen() {
	a.channel.EnableReading()
}

// Close disables and removes the channel and closes the listening fd.
func (a *Acceptor) Close() error {
	a.channel.DisableAll()
	if err := a.channel.Remove(); err != nil {
		a.log.Errorf("acceptor: remove channel: %v", err)
	}
	return a.file.Close()
}

func (a *Acceptor) handleRead(ts time.Time) {
	connFD, sa, err := unix.Accept4(a.listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		switch err {
		case unix.EAGAIN:
			// spurious wakeup, nothing to accept
		case unix.EMFILE:
			a.log.Errorf("acceptor: accept failed, process fd limit reached (EMFILE)")
		default:
			a.log.Errorf("acceptor: accept failed: %v", err)
		}
		return
	}

	peerAddr := SockaddrToTCPAddr(sa)
	if a.onNewConnection != nil {
		a.onNewConnection(connFD, peerAddr)
	} else {
		unix.Close(connFD)
	}
}

// SockaddrToTCPAddr converts a raw unix.Sockaddr (as returned by Accept4
// or Getsockname) into a *net.TCPAddr. Unrecognized sockaddr families
// yield a zero-value address.
func SockaddrToTCPAddr(sa unix.Sockaddr) *net.TCPAddr {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, s.Addr[:])
		return &net.TCPAddr{IP: ip, Port: s.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, s.Addr[:])
		return &net.TCPAddr{IP: ip, Port: s.Port}
	default:
		return &net.TCPAddr{}
	}
}
