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

// Package server composes an Acceptor, a looppool.Pool and a
// name-keyed connection table into the top-level TcpServer a caller
// actually constructs.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/nabbar/reactor/acceptor"
	"github.com/nabbar/reactor/conn"
	"github.com/nabbar/reactor/errors"
	"github.com/nabbar/reactor/eventloop"
	"github.com/nabbar/reactor/logger"
	"github.com/nabbar/reactor/looppool"
)

func init() {
	errors.Register(codeStart, "server start failed")
}

const codeStart = errors.MinPkgServer

// TcpServer binds a listening socket to a pool of I/O loops and routes
// every accepted connection through the user's callbacks.
type TcpServer struct {
	cfg Config
	log logger.Logger

	instanceID string

	mainLoop *eventloop.EventLoop
	accept   *acceptor.Acceptor
	pool     *looppool.Pool

	threadInitCB ThreadInitCallback

	mu          sync.Mutex
	connections map[string]*conn.TcpConnection
	nextConnID  uint64

	onConnection    conn.ConnectionCallback
	onMessage       conn.MessageCallback
	onWriteComplete conn.WriteCompleteCallback
	onHighWaterMark conn.HighWaterMarkCallback

	startCount atomic.Int64
}

// New builds a TcpServer from cfg with opts applied on top, validating
// the result before constructing the main loop and listening socket.
func New(cfg Config, opts ...Option) (*TcpServer, error) {
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	mainLoop, err := eventloop.New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	mainLoop.SetPollTimeout(cfg.PollTimeout)

	a, err := acceptor.New(mainLoop, cfg.Logger, cfg.Addr, cfg.ReusePort)
	if err != nil {
		return nil, err
	}

	s := &TcpServer{
		cfg:         cfg,
		log:         cfg.Logger,
		instanceID:  uuid.NewString()[:8],
		mainLoop:    mainLoop,
		accept:      a,
		connections: make(map[string]*conn.TcpConnection),
	}
	s.pool = looppool.New(mainLoop, cfg.Logger)
	s.pool.SetThreadNum(cfg.ThreadNum)
	a.SetNewConnectionCallback(s.newConnection)

	return s, nil
}

func (s *TcpServer) SetConnectionCallback(cb conn.ConnectionCallback)       { s.onConnection = cb }
func (s *TcpServer) SetMessageCallback(cb conn.MessageCallback)             { s.onMessage = cb }
func (s *TcpServer) SetWriteCompleteCallback(cb conn.WriteCompleteCallback) { s.onWriteComplete = cb }
func (s *TcpServer) SetHighWaterMarkCallback(cb conn.HighWaterMarkCallback) { s.onHighWaterMark = cb }

// SetThreadInitCallback installs cb, run on each I/O loop's own goroutine
// before Start arms it. Call before Start.
func (s *TcpServer) SetThreadInitCallback(cb ThreadInitCallback) { s.threadInitCB = cb }

// SetThreadNum resizes the I/O loop pool. Call before Start.
func (s *TcpServer) SetThreadNum(n int) { s.pool.SetThreadNum(n) }

// Addr is the bound listen address, useful when Config.Addr requested an
// ephemeral port.
func (s *TcpServer) Addr() net.Addr { return s.accept.Addr() }

// NumConnections is the connection table's current size.
func (s *TcpServer) NumConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// Start spawns the I/O loop pool (once — further calls are logged and
// ignored, tracked via a monotonic counter rather than a boolean so
// misuse shows up in the logs) and starts accepting on the main loop,
// which runs on the calling goroutine and blocks until Quit.
func (s *TcpServer) Start() error {
	n := s.startCount.Add(1)
	if n > 1 {
		s.log.Warnf("server %s: Start called %d times, pool already running", s.cfg.Name, n)
		return nil
	}

	initCB := func(l *eventloop.EventLoop) {
		l.SetPollTimeout(s.cfg.PollTimeout)
		if s.threadInitCB != nil {
			s.threadInitCB(l)
		}
	}
	if err := s.pool.Start(initCB); err != nil {
		return errors.Fatalf(codeStart, err)
	}
	s.accept.Listen()
	s.mainLoop.Loop()
	return nil
}

// Quit stops the main loop, which returns Start's blocking call; every
// I/O loop in the pool is stopped too.
func (s *TcpServer) Quit() {
	for _, l := range s.pool.Loops() {
		l.Quit()
	}
	s.mainLoop.Quit()
}

// newConnection runs on the main loop's goroutine (the acceptor's
// channel is registered there): it picks the next I/O loop round-robin,
// builds the connection's name, resolves the local address, constructs
// the connection, and posts ConnectEstablished to its owning loop.
func (s *TcpServer) newConnection(fd int, peerAddr *net.TCPAddr) {
	ioLoop := s.pool.NextLoop()

	s.nextConnID++
	name := fmt.Sprintf("%s-%s#%d", s.cfg.Name, s.instanceID, s.nextConnID)

	localAddr := localTCPAddr(fd)

	c := conn.New(ioLoop, s.log, name, fd, localAddr, peerAddr)
	c.SetHighWaterMarkCallback(s.onHighWaterMark, s.cfg.HighWaterMark)
	c.SetConnectionCallback(s.onConnection)
	c.SetMessageCallback(s.onMessage)
	c.SetWriteCompleteCallback(s.onWriteComplete)
	c.SetClosedNotifier(s.removeConnection)

	s.mu.Lock()
	s.connections[name] = c
	s.mu.Unlock()

	ioLoop.RunInLoop(c.ConnectEstablished)
}

// removeConnection is conn's closedNotifier: called on the owning I/O
// loop once a connection reaches Disconnected. It posts the table
// deletion to the main loop, then schedules ConnectDestroyed back on the
// I/O loop — mirroring the two-hop handoff a real multi-loop server needs
// since the table must only be mutated from the main loop.
func (s *TcpServer) removeConnection(c *conn.TcpConnection) {
	s.mainLoop.RunInLoop(func() { s.removeConnectionInLoop(c) })
}

func (s *TcpServer) removeConnectionInLoop(c *conn.TcpConnection) {
	s.mu.Lock()
	delete(s.connections, c.Name())
	s.mu.Unlock()

	c.Loop().RunInLoop(c.ConnectDestroyed)
}

// Stop, on destruction, schedules ConnectDestroyed on every remaining
// connection's owning loop and empties the table. Callers should Quit
// the server (and let Start's blocking call return) before Stop.
func (s *TcpServer) Stop() {
	s.mu.Lock()
	remaining := make([]*conn.TcpConnection, 0, len(s.connections))
	for _, c := range s.connections {
		remaining = append(remaining, c)
	}
	s.connections = make(map[string]*conn.TcpConnection)
	s.mu.Unlock()

	for _, c := range remaining {
		c.Loop().RunInLoop(c.ConnectDestroyed)
	}
}

func localTCPAddr(fd int) *net.TCPAddr {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return &net.TCPAddr{}
	}
	return acceptor.SockaddrToTCPAddr(sa)
}
