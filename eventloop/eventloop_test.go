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

package eventloop_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/reactor/eventloop"
	"github.com/nabbar/reactor/logger"
)

var _ = Describe("EventLoop", func() {
	var l *eventloop.EventLoop

	BeforeEach(func() {
		var err error
		l, err = eventloop.New(logger.New())
		Expect(err).ToNot(HaveOccurred())

		go l.Loop()
		Eventually(l.IsLooping, "1s", "5ms").Should(BeTrue())
	})

	AfterEach(func() {
		l.Quit()
		Eventually(l.IsLooping, "1s", "5ms").Should(BeFalse())
	})

	It("wakes a blocked poll within a small bounded time when Quit is called off-thread", func() {
		start := time.Now()
		l.Quit()
		Eventually(l.IsLooping, "2s", "5ms").Should(BeFalse())
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
	})

	It("runs a functor posted from another goroutine", func() {
		done := make(chan struct{})
		l.RunInLoop(func() { close(done) })
		Eventually(done, "1s").Should(BeClosed())
	})

	It("preserves FIFO order across a batch queued from off-thread", func() {
		var mu sync.Mutex
		var order []int
		var wg sync.WaitGroup
		wg.Add(5)

		for i := 0; i < 5; i++ {
			i := i
			l.QueueInLoop(func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				wg.Done()
			})
		}

		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		Eventually(done, "1s").Should(BeClosed())

		mu.Lock()
		defer mu.Unlock()
		Expect(order).To(Equal([]int{0, 1, 2, 3, 4}))
	})

	It("lets a functor queued during drain run on the very next cycle without re-entering the current one", func() {
		reentered := false
		secondRan := make(chan struct{})

		l.QueueInLoop(func() {
			l.QueueInLoop(func() {
				close(secondRan)
			})
			// if the library re-entered the current drain, secondRan would
			// already be closed by the time this functor returns.
			select {
			case <-secondRan:
				reentered = true
			default:
			}
		})

		Eventually(secondRan, "1s").Should(BeClosed())
		Expect(reentered).To(BeFalse())
	})
})
