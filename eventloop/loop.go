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

// Package eventloop is the single-threaded cooperative driver: poll,
// dispatch the channels that became ready, then drain any work posted to
// it from other goroutines. Exactly one goroutine may ever run a given
// EventLoop's Loop method at a time, and that goroutine is the only one
// allowed to mutate the loop's channels or demultiplexer directly;
// everyone else must go through RunInLoop/QueueInLoop.
package eventloop

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	ratomic "github.com/nabbar/reactor/atomic"
	"github.com/nabbar/reactor/channel"
	"github.com/nabbar/reactor/errors"
	"github.com/nabbar/reactor/logger"
	"github.com/nabbar/reactor/poller"
)

func init() {
	errors.Register(codeEventfdCreate, "eventfd create failed")
	errors.Register(codeDuplicateLoop, "a second event loop was started on a goroutine that already owns one")
	errors.Register(codePollFailed, "demultiplexer poll failed")
}

const (
	codeEventfdCreate = errors.MinPkgEventLoop + iota
	codeDuplicateLoop
	codePollFailed
)

// DefaultPollTimeout bounds every blocking wait so a loop with nothing to
// do still wakes periodically to reassess its quit flag.
const DefaultPollTimeout = 10 * time.Second

// Functor is a unit of work posted to a loop from any goroutine.
type Functor func()

// EventLoop is the per-thread reactor core. The zero value is not usable;
// build one with New.
type EventLoop struct {
	log logger.Logger
	dmx poller.Poller

	looping atomic.Bool
	quit    atomic.Bool
	owner   atomic.Int64

	pollTimeout ratomic.Value[time.Duration]

	pollReturnTime ratomic.Value[time.Time]

	mu        sync.Mutex
	pending   []Functor
	inPending atomic.Bool

	wakeupFD      int
	wakeupChannel *channel.Channel[EventLoop]
}

// New builds an EventLoop with its own demultiplexer and wakeup fd. The
// loop does not start running until Loop is called, normally from a
// dedicated goroutine spawned by looppool.LoopThread.
func New(log logger.Logger) (*EventLoop, error) {
	dmx, err := poller.New(log)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, errors.Fatalf(codeEventfdCreate, err)
	}

	l := &EventLoop{log: log, dmx: dmx, wakeupFD: fd}
	l.owner.Store(-1)
	l.pollTimeout.Store(DefaultPollTimeout)

	l.wakeupChannel = channel.New[EventLoop](l, log, fd)
	l.wakeupChannel.SetReadHandler(l.handleWakeup)
	l.wakeupChannel.EnableReading()

	return l, nil
}

// Loop runs the poll/dispatch/drain cycle until Quit is called. It must
// be called on the goroutine that will own this loop for its lifetime.
// Calling it from a goroutine that already owns a different loop is fatal;
// a second concurrent call on the same loop from another goroutine is not
// detected.
func (l *EventLoop) Loop() {
	id := goroutineID()
	if prior, already := claimGoroutine(id, l); already && prior != l {
		l.log.Fatalf("%s", errors.Fatalf(codeDuplicateLoop, nil).Error())
		return
	}
	defer releaseGoroutine(id)

	l.owner.Store(id)
	l.looping.Store(true)
	l.log.Infof("event loop started")

	var active []poller.Channel
	for !l.quit.Load() {
		active = active[:0]
		ts, err := l.dmx.Poll(l.pollTimeout.Load(), &active)
		if err != nil {
			l.log.Errorf("%s", errors.New(codePollFailed, err).Error())
			continue
		}
		l.pollReturnTime.Store(ts)

		for _, c := range active {
			if h, ok := c.(channel.EventHandler); ok {
				h.HandleEvent(ts)
			}
		}
		l.drainPending()
	}

	l.looping.Store(false)
	l.log.Infof("event loop stopped")
}

// Quit requests the loop exit after its current poll/dispatch/drain
// cycle. Called off-thread, it also wakes an in-progress poll.
func (l *EventLoop) Quit() {
	l.quit.Store(true)
	if !l.isInLoopThread() {
		l.wakeup()
	}
}

// RunInLoop executes f synchronously if called from the owning goroutine,
// otherwise posts it via QueueInLoop.
func (l *EventLoop) RunInLoop(f Functor) {
	if l.isInLoopThread() {
		f()
		return
	}
	l.QueueInLoop(f)
}

// QueueInLoop appends f to the pending queue under lock. It wakes the
// loop if the caller is off-thread, or if the loop is currently in the
// middle of draining pending work — f posted by an in-progress functor
// must not wait for the next I/O readiness to run.
func (l *EventLoop) QueueInLoop(f Functor) {
	l.mu.Lock()
	l.pending = append(l.pending, f)
	l.mu.Unlock()

	if !l.isInLoopThread() || l.inPending.Load() {
		l.wakeup()
	}
}

// drainPending swaps the pending queue with an empty slice and executes
// every functor that was queued before the swap. Functors queued during
// the drain (including by other functors in the same batch) accumulate
// for the next iteration rather than running in this one.
func (l *EventLoop) drainPending() {
	l.mu.Lock()
	functors := l.pending
	l.pending = nil
	l.mu.Unlock()

	l.inPending.Store(true)
	for _, f := range functors {
		f()
	}
	l.inPending.Store(false)
}

func (l *EventLoop) wakeup() {
	var buf [8]byte
	buf[0] = 1
	if _, err := unix.Write(l.wakeupFD, buf[:]); err != nil {
		l.log.Errorf("event loop wakeup write: %v", err)
	}
}

func (l *EventLoop) handleWakeup(time.Time) {
	var buf [8]byte
	n, err := unix.Read(l.wakeupFD, buf[:])
	if err != nil {
		l.log.Errorf("event loop wakeup read: %v", err)
		return
	}
	if n != 8 {
		l.log.Errorf("event loop wakeup read: partial read of %d bytes", n)
	}
}

// UpdateChannel, RemoveChannel and IsInLoopThread satisfy channel.Loop,
// letting a Channel[T] reach this loop's demultiplexer without importing
// this package.
func (l *EventLoop) UpdateChannel(c poller.Channel) error { return l.dmx.UpdateChannel(c) }
func (l *EventLoop) RemoveChannel(c poller.Channel) error { return l.dmx.RemoveChannel(c) }
func (l *EventLoop) HasChannel(fd int) bool               { return l.dmx.HasChannel(fd) }
func (l *EventLoop) IsInLoopThread() bool                 { return l.isInLoopThread() }

func (l *EventLoop) isInLoopThread() bool { return goroutineID() == l.owner.Load() }

// SetPollTimeout overrides the demultiplexer wait bound. Safe to call
// before Loop starts, or from any goroutine afterward — the new value
// takes effect on the next poll.
func (l *EventLoop) SetPollTimeout(d time.Duration) { l.pollTimeout.Store(d) }

// IsLooping reports whether Loop is currently executing its cycle.
func (l *EventLoop) IsLooping() bool { return l.looping.Load() }

// PollReturnTime is the wall-clock timestamp of the most recent poll
// return.
func (l *EventLoop) PollReturnTime() time.Time { return l.pollReturnTime.Load() }
