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

package poller

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/reactor/errors"
	"github.com/nabbar/reactor/logger"
)

func init() {
	errors.Register(codePollWait, "poll failed")
}

const codePollWait = errors.MinPkgPoller + 10

// pollPoller is the portable fallback backend, selected by MUDUO_USE_POLL.
// Unlike epoll it has no persistent kernel-side set: every Poll call
// rebuilds the pollfd slice from the tracked channels.
type pollPoller struct {
	log      logger.Logger
	channels map[int]Channel
	pfds     []unix.PollFd
}

func newPollPoller(log logger.Logger) Poller {
	return &pollPoller{
		log:      log,
		channels: make(map[int]Channel),
		pfds:     make([]unix.PollFd, 0, initialEventCap),
	}
}

func (p *pollPoller) Poll(timeout time.Duration, active *[]Channel) (time.Time, error) {
	p.pfds = p.pfds[:0]
	for fd, c := range p.channels {
		p.pfds = append(p.pfds, unix.PollFd{Fd: int32(fd), Events: int16(c.Events())})
	}

	ms := int(timeout / time.Millisecond)
	n, err := unix.Poll(p.pfds, ms)
	now := time.Now()
	if err != nil {
		if err == unix.EINTR {
			return now, nil
		}
		return now, errors.New(codePollWait, err)
	}
	if n == 0 {
		return now, nil
	}

	for _, pfd := range p.pfds {
		if pfd.Revents == 0 {
			continue
		}
		if c, ok := p.channels[int(pfd.Fd)]; ok {
			c.SetREvents(uint32(pfd.Revents))
			*active = append(*active, c)
		}
	}
	return now, nil
}

func (p *pollPoller) UpdateChannel(c Channel) error {
	switch c.Index() {
	case New:
		p.channels[c.Fd()] = c
		c.SetIndex(Added)
	case Deleted:
		c.SetIndex(Added)
	case Added:
		if c.Events() == 0 {
			c.SetIndex(Deleted)
		}
	}
	return nil
}

func (p *pollPoller) RemoveChannel(c Channel) error {
	delete(p.channels, c.Fd())
	c.SetIndex(New)
	return nil
}

func (p *pollPoller) HasChannel(fd int) bool {
	_, ok := p.channels[fd]
	return ok
}
