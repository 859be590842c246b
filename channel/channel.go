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

// Package channel binds one file descriptor to its interest set, its
// handler slots, and a back-reference to the loop it is registered with.
// A Channel never touches the kernel directly: enabling or disabling an
// interest bit asks the owning Loop to push the change through its
// poller.
package channel

import (
	"runtime"
	"time"
	"weak"

	"golang.org/x/sys/unix"

	"github.com/nabbar/reactor/errors"
	"github.com/nabbar/reactor/logger"
	"github.com/nabbar/reactor/poller"
)

func init() {
	errors.Register(codeUpdateFatal, "channel update rejected by demultiplexer")
}

const codeUpdateFatal = errors.MinPkgChannel

// event bit values match both epoll and poll on Linux, so a Channel can
// be handed unmodified to either poller backend.
const (
	eventNone  uint32 = 0
	eventRead  uint32 = unix.POLLIN | unix.POLLPRI
	eventWrite uint32 = unix.POLLOUT
)

// Loop is the narrow view a Channel needs of its owning event loop.
type Loop interface {
	UpdateChannel(c poller.Channel) error
	RemoveChannel(c poller.Channel) error
	IsInLoopThread() bool
}

// EventHandler is the view an EventLoop needs of a channel it is about to
// dispatch: the poller.Channel fields plus the dispatch entrypoint.
// *Channel[T] satisfies it for any T.
type EventHandler interface {
	poller.Channel
	HandleEvent(ts time.Time)
}

// ReadHandler receives the poll-return timestamp so a read handler can
// compute end-to-end latency without a second clock call.
type ReadHandler func(ts time.Time)
type WriteHandler func()
type CloseHandler func()
type ErrorHandler func()

// Channel is generic in the type of the owner it may be tied to (e.g. a
// TcpConnection). Channels with no higher-level owner — the acceptor's
// listening channel, a loop's wakeup channel — are simply never tied;
// handlers then always run.
type Channel[T any] struct {
	loop Loop
	log  logger.Logger
	fd   int

	events  uint32
	revents uint32
	index   poller.Index

	tied bool
	tie  weak.Pointer[T]

	onRead  ReadHandler
	onWrite WriteHandler
	onClose CloseHandler
	onError ErrorHandler
}

// New binds fd to loop with an empty interest set. log receives the FATAL
// entry if the demultiplexer ever rejects an ADD/MOD for this channel.
func New[T any](loop Loop, log logger.Logger, fd int) *Channel[T] {
	return &Channel[T]{loop: loop, log: log, fd: fd, index: poller.New}
}

func (c *Channel[T]) Fd() int { return c.fd }

// Events is the interest set, satisfying poller.Channel.
func (c *Channel[T]) Events() uint32 { return c.events }

// SetREvents stamps the mask a poll reported as ready, satisfying
// poller.Channel.
func (c *Channel[T]) SetREvents(events uint32) { c.revents = events }

func (c *Channel[T]) Index() poller.Index     { return c.index }
func (c *Channel[T]) SetIndex(i poller.Index) { c.index = i }

// IsNoneEvent reports whether the interest set is currently empty.
func (c *Channel[T]) IsNoneEvent() bool { return c.events == eventNone }
func (c *Channel[T]) IsWriting() bool   { return c.events&eventWrite != 0 }
func (c *Channel[T]) IsReading() bool   { return c.events&eventRead != 0 }

func (c *Channel[T]) SetReadHandler(h ReadHandler)   { c.onRead = h }
func (c *Channel[T]) SetWriteHandler(h WriteHandler) { c.onWrite = h }
func (c *Channel[T]) SetCloseHandler(h CloseHandler) { c.onClose = h }
func (c *Channel[T]) SetErrorHandler(h ErrorHandler) { c.onError = h }

func (c *Channel[T]) EnableReading() {
	c.events |= eventRead
	c.update()
}

func (c *Channel[T]) DisableReading() {
	c.events &^= eventRead
	c.update()
}

func (c *Channel[T]) EnableWriting() {
	c.events |= eventWrite
	c.update()
}

func (c *Channel[T]) DisableWriting() {
	c.events &^= eventWrite
	c.update()
}

// DisableAll clears the interest set entirely.
func (c *Channel[T]) DisableAll() {
	c.events = eventNone
	c.update()
}

// update pushes the current interest set through to the demultiplexer. An
// ADD/MOD rejection is a configuration-fatal condition: the poller's view of
// this fd would silently diverge from the channel's if left unobserved, so
// it is escalated to FATAL rather than swallowed.
func (c *Channel[T]) update() {
	if err := c.loop.UpdateChannel(c); err != nil && errors.IsFatal(err) {
		c.log.Fatalf("%s", errors.Fatalf(codeUpdateFatal, err).Error())
	}
}

// Remove unregisters the channel from its loop's poller.
func (c *Channel[T]) Remove() error {
	return c.loop.RemoveChannel(c)
}

// Tie stores a weak reference to owner. handleEvent promotes it to a
// strong local for the duration of the dispatch so a concurrently
// destroyed owner cannot be dispatched into.
func (c *Channel[T]) Tie(owner *T) {
	c.tied = true
	c.tie = weak.Make(owner)
}

// HandleEvent dispatches the revents most recently stamped by a poll, in
// the fixed order close, error, readable, writable. Any absent handler is
// a no-op.
func (c *Channel[T]) HandleEvent(ts time.Time) {
	if c.tied {
		owner := c.tie.Value()
		if owner == nil {
			return
		}
		defer runtime.KeepAlive(owner)
	}
	c.dispatch(ts)
}

func (c *Channel[T]) dispatch(ts time.Time) {
	if c.revents&unix.POLLHUP != 0 && c.revents&eventRead == 0 {
		if c.onClose != nil {
			c.onClose()
		}
		return
	}
	if c.revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		if c.onError != nil {
			c.onError()
		}
	}
	if c.revents&eventRead != 0 {
		if c.onRead != nil {
			c.onRead(ts)
		}
	}
	if c.revents&eventWrite != 0 {
		if c.onWrite != nil {
			c.onWrite()
		}
	}
}
