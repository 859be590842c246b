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

import (
	goerrors "errors"
	"fmt"

	pkgerr "github.com/pkg/errors"
)

// Error is this module's error type: a code, an optional wrapped cause, and
// a fatal marker for configuration errors that must terminate the process
// (a nil main loop, listen-socket creation failure, demultiplexer creation
// failure, a second loop started on an already-owned thread).
type Error interface {
	error
	Code() CodeError
	Fatal() bool
	Unwrap() error
}

type ers struct {
	code  CodeError
	fatal bool
	cause error
}

// New creates an Error for code, optionally wrapping cause with a stack
// trace via github.com/pkg/errors so the trace survives across goroutines.
func New(code CodeError, cause error) Error {
	if cause != nil {
		cause = pkgerr.WithStack(cause)
	}
	return &ers{code: code, cause: cause}
}

// Fatalf creates a fatal Error: the caller is expected to log it at Fatal
// level and terminate the process.
func Fatalf(code CodeError, cause error) Error {
	if cause != nil {
		cause = pkgerr.WithStack(cause)
	}
	return &ers{code: code, fatal: true, cause: cause}
}

func (e *ers) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %s", e.code, e.code.Message(), e.cause.Error())
	}
	return fmt.Sprintf("[%s] %s", e.code, e.code.Message())
}

func (e *ers) Code() CodeError { return e.code }
func (e *ers) Fatal() bool     { return e.fatal }
func (e *ers) Unwrap() error   { return e.cause }

// IsFatal reports whether err is a configuration-fatal Error from this
// package's New/Fatalf constructors.
func IsFatal(err error) bool {
	var e Error
	if As(err, &e) {
		return e.Fatal()
	}
	return false
}

// As is a thin wrapper over errors.As kept local so callers only need this
// package's import, matching nabbar-golib/errors/compat.go's shim style.
func As(err error, target interface{}) bool {
	return goerrors.As(err, target)
}
