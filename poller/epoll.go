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

const initialEventCap = 16

func init() {
	errors.Register(codeEpollCreate, "epoll_create1 failed")
	errors.Register(codeEpollWait, "epoll_wait failed")
	errors.Register(codeEpollCtlAdd, "epoll_ctl ADD/MOD failed")
	errors.Register(codeEpollCtlDel, "epoll_ctl DEL failed")
}

const (
	codeEpollCreate = errors.MinPkgPoller + iota
	codeEpollWait
	codeEpollCtlAdd
	codeEpollCtlDel
)

type epollPoller struct {
	log      logger.Logger
	epfd     int
	events   []unix.EpollEvent
	channels map[int]Channel
}

func newEpollPoller(log logger.Logger) (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Fatalf(codeEpollCreate, err)
	}
	return &epollPoller{
		log:      log,
		epfd:     fd,
		events:   make([]unix.EpollEvent, initialEventCap),
		channels: make(map[int]Channel),
	}, nil
}

func (p *epollPoller) Poll(timeout time.Duration, active *[]Channel) (time.Time, error) {
	ms := int(timeout / time.Millisecond)
	n, err := unix.EpollWait(p.epfd, p.events, ms)
	now := time.Now()
	if err != nil {
		if err == unix.EINTR {
			return now, nil
		}
		return now, errors.New(codeEpollWait, err)
	}

	for i := 0; i < n; i++ {
		ev := p.events[i]
		if c, ok := p.channels[int(ev.Fd)]; ok {
			c.SetREvents(ev.Events)
			*active = append(*active, c)
		}
	}

	if n == len(p.events) {
		p.events = make([]unix.EpollEvent, len(p.events)*2)
	}
	return now, nil
}

func (p *epollPoller) UpdateChannel(c Channel) error {
	fd := c.Fd()
	switch c.Index() {
	case New:
		p.channels[fd] = c
		c.SetIndex(Added)
		return p.ctl(unix.EPOLL_CTL_ADD, c)
	case Deleted:
		c.SetIndex(Added)
		return p.ctl(unix.EPOLL_CTL_ADD, c)
	case Added:
		if c.Events() == 0 {
			c.SetIndex(Deleted)
			return p.ctl(unix.EPOLL_CTL_DEL, c)
		}
		return p.ctl(unix.EPOLL_CTL_MOD, c)
	}
	return nil
}

func (p *epollPoller) RemoveChannel(c Channel) error {
	fd := c.Fd()
	delete(p.channels, fd)
	if c.Index() == Added {
		if err := p.ctl(unix.EPOLL_CTL_DEL, c); err != nil {
			p.log.Errorf("epoll_ctl DEL fd=%d: %v", fd, err)
		}
	}
	c.SetIndex(New)
	return nil
}

func (p *epollPoller) HasChannel(fd int) bool {
	_, ok := p.channels[fd]
	return ok
}

func (p *epollPoller) ctl(op int, c Channel) error {
	ev := unix.EpollEvent{Events: c.Events(), Fd: int32(c.Fd())}
	if err := unix.EpollCtl(p.epfd, op, c.Fd(), &ev); err != nil {
		if op == unix.EPOLL_CTL_DEL {
			return errors.New(codeEpollCtlDel, err)
		}
		return errors.Fatalf(codeEpollCtlAdd, err)
	}
	return nil
}
