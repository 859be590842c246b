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

package channel

import (
	"runtime"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/reactor/errors"
	"github.com/nabbar/reactor/logger"
	"github.com/nabbar/reactor/poller"
)

type fakeLoop struct {
	updates   int
	removes   int
	updateErr error
}

func (l *fakeLoop) UpdateChannel(c poller.Channel) error { l.updates++; return l.updateErr }
func (l *fakeLoop) RemoveChannel(c poller.Channel) error { l.removes++; return nil }
func (l *fakeLoop) IsInLoopThread() bool                 { return true }

type owner struct{ id int }

// fakeLogger records Fatalf calls instead of terminating the process, so a
// test can observe that the fatal path was taken.
type fakeLogger struct {
	logger.Logger
	fatalCalls int
	lastFatal  string
}

func (l *fakeLogger) Fatalf(format string, args ...interface{}) {
	l.fatalCalls++
	l.lastFatal = format
}

var _ = Describe("Channel", func() {
	var loop *fakeLoop
	var log *fakeLogger

	BeforeEach(func() {
		loop = &fakeLoop{}
		log = &fakeLogger{}
	})

	It("starts with no interest", func() {
		c := New[owner](loop, log, 3)
		Expect(c.IsNoneEvent()).To(BeTrue())
		Expect(c.IsReading()).To(BeFalse())
		Expect(c.IsWriting()).To(BeFalse())
	})

	It("enables and disables reading/writing independently, pushing each change to the loop", func() {
		c := New[owner](loop, log, 3)

		c.EnableReading()
		Expect(c.IsReading()).To(BeTrue())
		Expect(c.IsWriting()).To(BeFalse())

		c.EnableWriting()
		Expect(c.IsReading()).To(BeTrue())
		Expect(c.IsWriting()).To(BeTrue())

		c.DisableWriting()
		Expect(c.IsReading()).To(BeTrue())
		Expect(c.IsWriting()).To(BeFalse())

		Expect(loop.updates).To(Equal(3))
	})

	It("actually clears the interest mask on DisableAll, rather than a no-op OR", func() {
		c := New[owner](loop, log, 3)
		c.EnableReading()
		c.EnableWriting()

		c.DisableAll()
		Expect(c.IsNoneEvent()).To(BeTrue())
		Expect(c.events).To(Equal(eventNone))
	})

	It("escalates a fatal UpdateChannel error to the logger instead of swallowing it", func() {
		loop.updateErr = errors.Fatalf(errors.MinPkgPoller, nil)
		c := New[owner](loop, log, 3)

		c.EnableReading()

		Expect(log.fatalCalls).To(Equal(1))
	})

	It("does not escalate a non-fatal UpdateChannel error", func() {
		loop.updateErr = errors.New(errors.MinPkgPoller, nil)
		c := New[owner](loop, log, 3)

		c.EnableReading()

		Expect(log.fatalCalls).To(Equal(0))
	})

	It("dispatches error before read and read before write, without close when no hangup is reported", func() {
		c := New[owner](loop, log, 3)
		var order []string
		c.SetCloseHandler(func() { order = append(order, "close") })
		c.SetErrorHandler(func() { order = append(order, "error") })
		c.SetReadHandler(func(time.Time) { order = append(order, "read") })
		c.SetWriteHandler(func() { order = append(order, "write") })

		c.SetREvents(errBitForTest | eventRead | eventWrite)
		c.HandleEvent(time.Now())
		Expect(order).To(Equal([]string{"error", "read", "write"}))
	})

	It("treats a hangup without a readable bit as a close, skipping the other handlers", func() {
		c := New[owner](loop, log, 3)
		var order []string
		c.SetCloseHandler(func() { order = append(order, "close") })
		c.SetReadHandler(func(time.Time) { order = append(order, "read") })

		c.SetREvents(hangupForTest)
		c.HandleEvent(time.Now())
		Expect(order).To(Equal([]string{"close"}))
	})

	It("skips every handler once the tied owner has been collected", func() {
		c := New[owner](loop, log, 3)
		c.SetREvents(eventRead)

		func() {
			o := &owner{id: 1}
			c.Tie(o)
		}()

		Eventually(func() bool {
			runtime.GC()
			return c.tie.Value() == nil
		}, "1s", "10ms").Should(BeTrue(), "weak reference should clear once the owner is unreachable")

		called := false
		c.SetReadHandler(func(time.Time) { called = true })
		c.HandleEvent(time.Now())
		Expect(called).To(BeFalse())
	})

	It("dispatches normally while the tied owner is still reachable", func() {
		c := New[owner](loop, log, 3)
		o := &owner{id: 1}
		c.Tie(o)

		called := false
		c.SetReadHandler(func(time.Time) { called = true })
		c.SetREvents(eventRead)
		c.HandleEvent(time.Now())

		Expect(called).To(BeTrue())
		runtime.KeepAlive(o)
	})

	It("removes itself from the loop", func() {
		c := New[owner](loop, log, 3)
		Expect(c.Remove()).To(Succeed())
		Expect(loop.removes).To(Equal(1))
	})
})

const (
	errBitForTest = 0x008
	hangupForTest = 0x010
)
