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

package looppool_test

import (
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/reactor/eventloop"
	"github.com/nabbar/reactor/logger"
	"github.com/nabbar/reactor/looppool"
)

var _ = Describe("Pool", func() {
	var base *eventloop.EventLoop

	BeforeEach(func() {
		var err error
		base, err = eventloop.New(logger.New())
		Expect(err).ToNot(HaveOccurred())
		go base.Loop()
		Eventually(base.IsLooping, "1s", "5ms").Should(BeTrue())
	})

	AfterEach(func() {
		base.Quit()
	})

	It("returns the base loop when no I/O threads were requested", func() {
		p := looppool.New(base, logger.New())
		Expect(p.Start(nil)).To(Succeed())
		Expect(p.NextLoop()).To(BeIdenticalTo(base))
		Expect(p.NextLoop()).To(BeIdenticalTo(base))
	})

	It("runs initCB on the base loop when N==0", func() {
		p := looppool.New(base, logger.New())
		var called int32
		Expect(p.Start(func(*eventloop.EventLoop) { atomic.AddInt32(&called, 1) })).To(Succeed())
		Expect(atomic.LoadInt32(&called)).To(Equal(int32(1)))
	})

	It("dispatches across N loops in round-robin order 0,1,2,0", func() {
		p := looppool.New(base, logger.New())
		p.SetThreadNum(3)
		Expect(p.Start(nil)).To(Succeed())
		defer func() {
			for _, l := range p.Loops() {
				l.Quit()
			}
		}()

		loops := p.Loops()
		Expect(loops).To(HaveLen(3))

		var picks []*eventloop.EventLoop
		for i := 0; i < 4; i++ {
			picks = append(picks, p.NextLoop())
		}
		Expect(picks[0]).To(BeIdenticalTo(loops[0]))
		Expect(picks[1]).To(BeIdenticalTo(loops[1]))
		Expect(picks[2]).To(BeIdenticalTo(loops[2]))
		Expect(picks[3]).To(BeIdenticalTo(loops[0]))
	})

	It("runs initCB once per spawned loop, on that loop's own goroutine", func() {
		p := looppool.New(base, logger.New())
		p.SetThreadNum(2)

		var mu sync.Mutex
		seen := map[*eventloop.EventLoop]bool{}

		Expect(p.Start(func(l *eventloop.EventLoop) {
			mu.Lock()
			seen[l] = true
			mu.Unlock()
		})).To(Succeed())
		defer func() {
			for _, l := range p.Loops() {
				l.Quit()
			}
		}()

		mu.Lock()
		defer mu.Unlock()
		Expect(seen).To(HaveLen(2))
		for _, l := range p.Loops() {
			Expect(seen[l]).To(BeTrue())
		}
	})
})
