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

package poller_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sys/unix"

	"github.com/nabbar/reactor/logger"
	"github.com/nabbar/reactor/poller"
)

type fakeChannel struct {
	fd      int
	events  uint32
	revents uint32
	index   poller.Index
}

func (c *fakeChannel) Fd() int                    { return c.fd }
func (c *fakeChannel) Events() uint32             { return c.events }
func (c *fakeChannel) SetREvents(events uint32)   { c.revents = events }
func (c *fakeChannel) Index() poller.Index        { return c.index }
func (c *fakeChannel) SetIndex(i poller.Index)    { c.index = i }

var _ = Describe("Poller", func() {
	for _, usePoll := range []bool{false, true} {
		usePoll := usePoll

		Context(backendName(usePoll), func() {
			var (
				restoreEnv func()
				a, b       int
			)

			BeforeEach(func() {
				restoreEnv = setPollEnv(usePoll)

				fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
				Expect(err).ToNot(HaveOccurred())
				a, b = fds[0], fds[1]
			})

			AfterEach(func() {
				unix.Close(a)
				unix.Close(b)
				restoreEnv()
			})

			It("reports readiness only once a channel is registered and readable", func() {
				p, err := poller.New(logger.New())
				Expect(err).ToNot(HaveOccurred())

				c := &fakeChannel{fd: a, events: unix.EPOLLIN}
				Expect(p.UpdateChannel(c)).To(Succeed())
				Expect(c.Index()).To(Equal(poller.Added))
				Expect(p.HasChannel(a)).To(BeTrue())

				var active []poller.Channel
				_, err = p.Poll(20*time.Millisecond, &active)
				Expect(err).ToNot(HaveOccurred())
				Expect(active).To(BeEmpty(), "nothing written yet")

				_, werr := unix.Write(b, []byte("hi"))
				Expect(werr).ToNot(HaveOccurred())

				active = nil
				_, err = p.Poll(500*time.Millisecond, &active)
				Expect(err).ToNot(HaveOccurred())
				Expect(active).To(HaveLen(1))
				Expect(active[0].(*fakeChannel).revents & unix.EPOLLIN).ToNot(BeZero())
			})

			It("forgets a removed channel", func() {
				p, err := poller.New(logger.New())
				Expect(err).ToNot(HaveOccurred())

				c := &fakeChannel{fd: a, events: unix.EPOLLIN}
				Expect(p.UpdateChannel(c)).To(Succeed())
				Expect(p.RemoveChannel(c)).To(Succeed())
				Expect(p.HasChannel(a)).To(BeFalse())
				Expect(c.Index()).To(Equal(poller.New))
			})
		})
	}
})

func backendName(usePoll bool) string {
	if usePoll {
		return "poll backend"
	}
	return "epoll backend"
}

func setPollEnv(usePoll bool) func() {
	if !usePoll {
		return func() {}
	}
	os.Setenv("MUDUO_USE_POLL", "1")
	return func() { os.Unsetenv("MUDUO_USE_POLL") }
}
