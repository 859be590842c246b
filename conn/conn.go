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

// Package conn implements TcpConnection: the per-connection state
// machine that turns channel readiness into buffered, non-blocking reads
// and writes, with high-water-mark back-pressure and orderly shutdown.
package conn

import (
	"net"
	"time"

	"golang.org/x/sys/unix"

	ratomic "github.com/nabbar/reactor/atomic"
	"github.com/nabbar/reactor/buffer"
	"github.com/nabbar/reactor/channel"
	"github.com/nabbar/reactor/eventloop"
	"github.com/nabbar/reactor/logger"
)

// DefaultHighWaterMark is the output-buffer size, in bytes, at which
// back-pressure is signaled to the user unless overridden.
const DefaultHighWaterMark = 64 << 20

// TcpConnection is a single accepted (or, in a future connector, dialed)
// socket bound to one I/O loop for its entire lifetime.
type TcpConnection struct {
	log  logger.Logger
	loop *eventloop.EventLoop

	name string
	fd   int

	localAddr *net.TCPAddr
	peerAddr  *net.TCPAddr

	channel *channel.Channel[TcpConnection]

	state ratomic.Value[State]

	input  *buffer.Buffer
	output *buffer.Buffer

	highWaterMark int

	onConnection    ConnectionCallback
	onMessage       MessageCallback
	onWriteComplete WriteCompleteCallback
	onHighWaterMark HighWaterMarkCallback
	onClosed        closedNotifier

	ctx interface{}
}

// New constructs a TcpConnection in state Connecting, bound to loop and
// fd. Keep-alive is enabled immediately; the channel is built but not yet
// registered for any interest — that happens in ConnectEstablished.
func New(loop *eventloop.EventLoop, log logger.Logger, name string, fd int, localAddr, peerAddr *net.TCPAddr) *TcpConnection {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		log.Warnf("connection %s: enable SO_KEEPALIVE: %v", name, err)
	}

	c := &TcpConnection{
		log:           log,
		loop:          loop,
		name:          name,
		fd:            fd,
		localAddr:     localAddr,
		peerAddr:      peerAddr,
		input:         buffer.New(),
		output:        buffer.New(),
		highWaterMark: DefaultHighWaterMark,
	}
	c.state.Store(Connecting)

	c.channel = channel.New[TcpConnection](loop, log, fd)
	c.channel.SetReadHandler(c.handleRead)
	c.channel.SetWriteHandler(c.handleWrite)
	c.channel.SetCloseHandler(c.handleClose)
	c.channel.SetErrorHandler(c.handleError)

	return c
}

// Loop is the I/O loop this connection is permanently bound to.
func (c *TcpConnection) Loop() *eventloop.EventLoop { return c.loop }

func (c *TcpConnection) Name() string           { return c.name }
func (c *TcpConnection) Fd() int                { return c.fd }
func (c *TcpConnection) LocalAddress() net.Addr { return c.localAddr }
func (c *TcpConnection) PeerAddress() net.Addr  { return c.peerAddr }
func (c *TcpConnection) Connected() bool        { return c.state.Load() == Connected }
func (c *TcpConnection) State() State           { return c.state.Load() }

// SetContext attaches an arbitrary value to this connection, addressable
// later by Context. Neither is read or written by the connection itself.
func (c *TcpConnection) SetContext(ctx interface{}) { c.ctx = ctx }
func (c *TcpConnection) Context() interface{}       { return c.ctx }

func (c *TcpConnection) SetConnectionCallback(cb ConnectionCallback)       { c.onConnection = cb }
func (c *TcpConnection) SetMessageCallback(cb MessageCallback)             { c.onMessage = cb }
func (c *TcpConnection) SetWriteCompleteCallback(cb WriteCompleteCallback) { c.onWriteComplete = cb }

// SetHighWaterMarkCallback installs cb and, if hwm > 0, overrides
// DefaultHighWaterMark.
func (c *TcpConnection) SetHighWaterMarkCallback(cb HighWaterMarkCallback, hwm int) {
	c.onHighWaterMark = cb
	if hwm > 0 {
		c.highWaterMark = hwm
	}
}

// SetClosedNotifier is how the owning server wires its remove-connection
// hook. Not part of the user-facing API surface; a server package calls
// this once, right after New, before handing the connection to its loop.
func (c *TcpConnection) SetClosedNotifier(cb func(c *TcpConnection)) { c.onClosed = cb }

// ConnectEstablished transitions Connecting -> Connected, ties the
// channel to this connection, enables read interest, and invokes the
// connection callback. Must run on the owning loop's thread.
func (c *TcpConnection) ConnectEstablished() {
	c.channel.Tie(c)
	c.state.Store(Connected)
	c.channel.EnableReading()
	if c.onConnection != nil {
		c.onConnection(c)
	}
}

// ConnectDestroyed is the server-initiated counterpart to handleClose: it
// forces the terminal transition and tears down the channel even if the
// peer never sent one. Must run on the owning loop's thread.
func (c *TcpConnection) ConnectDestroyed() {
	if c.state.Load() != Disconnected {
		c.state.Store(Disconnected)
		c.channel.DisableAll()
		if c.onConnection != nil {
			c.onConnection(c)
		}
	}
	if err := c.channel.Remove(); err != nil {
		c.log.Errorf("connection %s: remove channel: %v", c.name, err)
	}
}

// Shutdown half-closes the write side once any queued output has
// drained. Safe to call from any goroutine.
func (c *TcpConnection) Shutdown() {
	c.loop.RunInLoop(c.shutdownInLoop)
}

func (c *TcpConnection) shutdownInLoop() {
	if s := c.state.Load(); s != Connected && s != Disconnecting {
		return
	}
	c.state.Store(Disconnecting)
	if !c.channel.IsWriting() {
		if err := unix.Shutdown(c.fd, unix.SHUT_WR); err != nil {
			c.log.Errorf("connection %s: shutdown(SHUT_WR): %v", c.name, err)
		}
	}
}

// Send queues data for write, either inline (already on the owning
// loop's thread) or posted to it. Dropped with a log if the connection is
// not Connected.
func (c *TcpConnection) Send(data []byte) {
	if c.state.Load() != Connected {
		c.log.Warnf("connection %s: send on non-connected socket, dropping %d bytes", c.name, len(data))
		return
	}
	if c.loop.IsInLoopThread() {
		c.sendInLoop(data)
		return
	}
	buf := append([]byte(nil), data...)
	c.loop.RunInLoop(func() { c.sendInLoop(buf) })
}

// sendInLoop attempts a direct write only when nothing is already queued
// and the channel has no pending write interest; otherwise (and on a
// short direct write) the remainder goes straight onto the output
// buffer. remaining is only ever computed from the success branch of the
// direct write attempt, never from an error path.
func (c *TcpConnection) sendInLoop(data []byte) {
	remaining := len(data)
	var faultError bool

	if !c.channel.IsWriting() && c.output.ReadableBytes() == 0 {
		n, err := unix.Write(c.fd, data)
		switch {
		case err == nil:
			remaining = len(data) - n
		case err == unix.EAGAIN:
			// kernel send buffer full, fall through to buffering
		case err == unix.EPIPE || err == unix.ECONNRESET:
			faultError = true
		default:
			c.log.Errorf("connection %s: write: %v", c.name, err)
		}
	}

	if faultError {
		return
	}

	if remaining == 0 {
		if c.onWriteComplete != nil {
			c.loop.QueueInLoop(func() { c.onWriteComplete(c) })
		}
		return
	}

	oldLen := c.output.ReadableBytes()
	if oldLen < c.highWaterMark && oldLen+remaining >= c.highWaterMark && c.onHighWaterMark != nil {
		newLen := oldLen + remaining
		c.loop.QueueInLoop(func() { c.onHighWaterMark(c, newLen) })
	}

	c.output.Append(data[len(data)-remaining:])
	if !c.channel.IsWriting() {
		c.channel.EnableWriting()
	}
}

// handleRead drains one readv's worth of bytes into the input buffer.
// n > 0 delivers a message, n == 0 is the peer's orderly close, n < 0 is
// a read error.
func (c *TcpConnection) handleRead(ts time.Time) {
	n, err := c.input.ReadFromFD(c.fd)
	switch {
	case n > 0:
		if c.onMessage != nil {
			c.onMessage(c, c.input, ts)
		}
	case n == 0:
		c.handleClose()
	default:
		if err != nil && err != unix.EAGAIN {
			c.handleError()
		}
	}
}

// handleWrite drains the output buffer. Once it empties, write interest
// is disabled — never read interest, which is the bug this state machine
// must not reproduce. A Disconnecting connection re-enters shutdownInLoop
// once the buffer is finally empty, so the half-close actually happens.
func (c *TcpConnection) handleWrite() {
	if !c.channel.IsWriting() {
		return
	}

	n, err := c.output.WriteToFD(c.fd)
	if err != nil {
		if err != unix.EAGAIN {
			c.log.Errorf("connection %s: write: %v", c.name, err)
		}
		return
	}
	c.output.Retrieve(n)

	if c.output.ReadableBytes() == 0 {
		c.channel.DisableWriting()
		if c.onWriteComplete != nil {
			c.loop.QueueInLoop(func() { c.onWriteComplete(c) })
		}
		if c.state.Load() == Disconnecting {
			c.shutdownInLoop()
		}
	}
}

// handleClose is the peer-initiated counterpart to ConnectDestroyed: it
// runs when the channel reports a hangup, transitions to Disconnected,
// and hands this connection to the server's closedNotifier so its table
// entry can be dropped.
func (c *TcpConnection) handleClose() {
	c.state.Store(Disconnected)
	c.channel.DisableAll()
	if c.onConnection != nil {
		c.onConnection(c)
	}
	if c.onClosed != nil {
		c.onClosed(c)
	}
}

func (c *TcpConnection) handleError() {
	c.log.Errorf("connection %s: socket error reported by poller", c.name)
}
