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

package eventloop

import "sync"

// perGoroutineLoop is the thread-local-pointer equivalent: it maps a
// goroutine id to the single EventLoop it is allowed to own. Loop()
// registers itself here before entering its poll/dispatch cycle and
// removes itself on exit; a second loop started on an already-owning
// goroutine is a fatal misconfiguration.
var perGoroutineLoop sync.Map // int64 -> *EventLoop

func claimGoroutine(id int64, l *EventLoop) (prior *EventLoop, already bool) {
	actual, loaded := perGoroutineLoop.LoadOrStore(id, l)
	if loaded {
		return actual.(*EventLoop), true
	}
	return nil, false
}

func releaseGoroutine(id int64) {
	perGoroutineLoop.Delete(id)
}
