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

// Package poller is the demultiplexer: the abstraction over a kernel
// readiness facility that an event loop waits on. Two backends are
// provided, epoll (default) and poll, selected each time New builds a
// demultiplexer by the presence of MUDUO_USE_POLL, the way the reactor this package is
// modeled on lets an environment variable pick between Poller and
// EPollPoller without a recompile.
package poller

import (
	"os"
	"time"

	"github.com/nabbar/reactor/logger"
)

// Index is a Channel's membership state in a Poller's fd map.
type Index int8

const (
	// New means the channel has never been registered.
	New Index = iota
	// Added means the channel is currently registered with the kernel.
	Added
	// Deleted means the channel was registered but its interest is now
	// empty; the fd→channel entry survives so a later re-enable is a
	// cheap re-ADD rather than a fresh insert.
	Deleted
)

// Channel is the narrow view a Poller needs of a registered descriptor.
// package channel's Channel satisfies this structurally.
type Channel interface {
	Fd() int
	Events() uint32
	SetREvents(events uint32)
	Index() Index
	SetIndex(i Index)
}

// Poller is the demultiplexer contract: register/modify/remove interest
// sets, wait for readiness, and report which channels became ready.
type Poller interface {
	// Poll waits up to timeout for readiness, appends each ready channel
	// to active (stamping its reported mask via SetREvents first), and
	// returns the wall-clock time the wait returned.
	Poll(timeout time.Duration, active *[]Channel) (time.Time, error)

	// UpdateChannel registers or re-registers c's interest set with the
	// kernel, transitioning c's Index per its current state.
	UpdateChannel(c Channel) error

	// RemoveChannel erases c's fd→channel entry, submitting a kernel DEL
	// first if c was currently Added.
	RemoveChannel(c Channel) error

	// HasChannel reports whether fd is currently tracked by this Poller.
	HasChannel(fd int) bool
}

// New constructs the default backend for this process: epoll unless
// MUDUO_USE_POLL is set (to any value, including empty), in which case
// the portable poll-based backend is used instead.
func New(log logger.Logger) (Poller, error) {
	if _, usePoll := os.LookupEnv("MUDUO_USE_POLL"); usePoll {
		return newPollPoller(log), nil
	}
	return newEpollPoller(log)
}
