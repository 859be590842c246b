/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the contract every reactor component logs through. It is safe
// to call from any goroutine: a connection's loop, the acceptor's loop and
// the main loop all hold and log through one concurrently.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// Fatalf logs at fatal level and terminates the process. Reserved for
	// unrecoverable setup failures (e.g. epoll_create1 itself failing) —
	// never called for a transient or peer-terminal condition.
	Fatalf(format string, args ...interface{})

	// SetLevel changes the minimum level this Logger emits.
	SetLevel(lvl Level)

	// WithField returns a derived Logger carrying an extra structured
	// field, e.g. the owning connection's name.
	WithField(key string, value interface{}) Logger
}

type wrapper struct {
	entry *logrus.Entry
}

// New builds a Logger writing to stderr at InfoLevel, the default
// nabbar-golib/logger ships before a caller calls SetOptions.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(InfoLevel.Logrus())
	return &wrapper{entry: logrus.NewEntry(l)}
}

// FromLogrus adapts an existing *logrus.Logger, for callers embedding this
// module inside a larger application with its own logging setup.
func FromLogrus(l *logrus.Logger) Logger {
	return &wrapper{entry: logrus.NewEntry(l)}
}

func (w *wrapper) Debugf(format string, args ...interface{}) { w.entry.Debugf(format, args...) }
func (w *wrapper) Infof(format string, args ...interface{})  { w.entry.Infof(format, args...) }
func (w *wrapper) Warnf(format string, args ...interface{})  { w.entry.Warnf(format, args...) }
func (w *wrapper) Errorf(format string, args ...interface{}) { w.entry.Errorf(format, args...) }
func (w *wrapper) Fatalf(format string, args ...interface{}) { w.entry.Fatalf(format, args...) }

func (w *wrapper) SetLevel(lvl Level) {
	w.entry.Logger.SetLevel(lvl.Logrus())
}

func (w *wrapper) WithField(key string, value interface{}) Logger {
	return &wrapper{entry: w.entry.WithField(key, value)}
}

var (
	defaultOnce sync.Once
	defaultLog  Logger
)

// Default returns the process-wide logger used when a component is built
// without an explicit Logger, lazily constructed on first use.
func Default() Logger {
	defaultOnce.Do(func() {
		defaultLog = New()
	})
	return defaultLog
}

// SetDefault replaces the process-wide default logger.
func SetDefault(l Logger) {
	defaultOnce.Do(func() {})
	defaultLog = l
}
