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

package server

import (
	"github.com/nabbar/reactor/conn"
	"github.com/nabbar/reactor/eventloop"
	"github.com/nabbar/reactor/looppool"
)

// These aliases let callers import only the server package for the
// common case, while conn's own package remains the home for anyone
// building a TcpConnection directly.
type (
	ConnectionCallback    = conn.ConnectionCallback
	MessageCallback       = conn.MessageCallback
	WriteCompleteCallback = conn.WriteCompleteCallback
	HighWaterMarkCallback = conn.HighWaterMarkCallback
)

// ThreadInitCallback runs on each I/O loop's own goroutine before that
// loop starts its poll/dispatch cycle.
type ThreadInitCallback = looppool.InitCallback

// EventLoop is re-exported so a ThreadInitCallback can be written against
// the server package alone.
type EventLoop = eventloop.EventLoop
