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

package errors

import "strconv"

// CodeError is a small numeric namespace for this module's failure kinds,
// grouped by owning package the way nabbar-golib/errors groups codes by
// MinPkgXxx offsets.
type CodeError uint16

// Base offsets, one per owning package. Leave headroom (100 per package)
// for new codes without renumbering a neighbour.
const (
	UnknownError CodeError = 0

	MinPkgBuffer    CodeError = 100
	MinPkgPoller    CodeError = 200
	MinPkgChannel   CodeError = 300
	MinPkgEventLoop CodeError = 400
	MinPkgLoopPool  CodeError = 500
	MinPkgAcceptor  CodeError = 600
	MinPkgConn      CodeError = 700
	MinPkgServer    CodeError = 800
)

var registry = make(map[CodeError]string, 32)

// Register associates a human-readable message with a code. Called once
// from each owning package's init().
func Register(code CodeError, message string) {
	registry[code] = message
}

// Message returns the registered message for code, or a generic fallback.
func (c CodeError) Message() string {
	if m, ok := registry[c]; ok {
		return m
	}
	if c == UnknownError {
		return "unknown error"
	}
	return "unregistered error code " + strconv.Itoa(int(c))
}

func (c CodeError) String() string {
	return strconv.Itoa(int(c))
}
