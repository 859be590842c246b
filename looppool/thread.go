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

// Package looppool spawns the pool of I/O-loop-owning goroutines a
// TcpServer dispatches accepted connections across, and the round-robin
// selection policy over them.
package looppool

import (
	"sync"

	"github.com/nabbar/reactor/eventloop"
	"github.com/nabbar/reactor/logger"
)

// InitCallback runs on a loop's own goroutine before it starts its
// poll/dispatch cycle.
type InitCallback func(loop *eventloop.EventLoop)

// thread owns exactly one EventLoop for the lifetime of its goroutine. It
// publishes the constructed loop back to the spawning goroutine through a
// mutex/condition pair, the way a loop thread hands its pointer back to
// whoever called start_loop().
type thread struct {
	log    logger.Logger
	initCB InitCallback

	mu   sync.Mutex
	cond *sync.Cond
	loop *eventloop.EventLoop
	err  error
}

func newThread(log logger.Logger, initCB InitCallback) *thread {
	t := &thread{log: log, initCB: initCB}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// start spawns the owning goroutine and blocks until the loop has been
// constructed (and, if present, initCB has returned).
func (t *thread) start() (*eventloop.EventLoop, error) {
	go t.run()

	t.mu.Lock()
	defer t.mu.Unlock()
	for t.loop == nil && t.err == nil {
		t.cond.Wait()
	}
	return t.loop, t.err
}

func (t *thread) run() {
	l, err := eventloop.New(t.log)
	if err != nil {
		t.mu.Lock()
		t.err = err
		t.cond.Signal()
		t.mu.Unlock()
		return
	}
	if t.initCB != nil {
		t.initCB(l)
	}

	t.mu.Lock()
	t.loop = l
	t.cond.Signal()
	t.mu.Unlock()

	l.Loop()
}
