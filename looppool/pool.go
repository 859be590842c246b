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

package looppool

import (
	"golang.org/x/sync/errgroup"

	"github.com/nabbar/reactor/eventloop"
	"github.com/nabbar/reactor/logger"
)

// Pool holds N loop-owning goroutines plus the base (main) loop that
// constructed it. SetThreadNum must be called before Start; Start must be
// called exactly once, from the base loop's own goroutine — the same
// goroutine that will later be the pool's only caller of NextLoop, so the
// round-robin index below needs no lock.
type Pool struct {
	base *eventloop.EventLoop
	log  logger.Logger
	n    int

	loops []*eventloop.EventLoop
	next  int
}

// New builds a Pool backed by base, the main loop that owns the acceptor.
func New(base *eventloop.EventLoop, log logger.Logger) *Pool {
	return &Pool{base: base, log: log}
}

// SetThreadNum sets how many I/O loops Start will spawn. Call before
// Start; calling it afterwards has no effect on an already-started pool.
func (p *Pool) SetThreadNum(n int) {
	if n < 0 {
		n = 0
	}
	p.n = n
}

// Start spawns SetThreadNum's requested loop threads, waiting for every
// one to finish constructing its EventLoop (and running initCB, if any)
// before returning. If the thread count is zero, initCB runs directly on
// the base loop instead and NextLoop always returns it.
func (p *Pool) Start(initCB InitCallback) error {
	if p.n == 0 {
		if initCB != nil {
			initCB(p.base)
		}
		return nil
	}

	threads := make([]*thread, p.n)
	for i := range threads {
		threads[i] = newThread(p.log, initCB)
	}

	var g errgroup.Group
	loops := make([]*eventloop.EventLoop, p.n)
	for i, t := range threads {
		i, t := i, t
		g.Go(func() error {
			l, err := t.start()
			if err != nil {
				return err
			}
			loops[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.loops = loops
	return nil
}

// NextLoop returns the base loop if no I/O threads were started, else the
// next loop in round-robin order.
func (p *Pool) NextLoop() *eventloop.EventLoop {
	if len(p.loops) == 0 {
		return p.base
	}
	l := p.loops[p.next]
	p.next = (p.next + 1) % len(p.loops)
	return l
}

// Loops returns every I/O loop the pool spawned, excluding the base loop.
func (p *Pool) Loops() []*eventloop.EventLoop {
	out := make([]*eventloop.EventLoop, len(p.loops))
	copy(out, p.loops)
	return out
}
