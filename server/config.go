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
	"fmt"
	"time"

	"github.com/nabbar/reactor/conn"
	"github.com/nabbar/reactor/logger"
)

// Config is a validated description of a TcpServer. The zero value is not
// usable; build one with DefaultConfig and apply Option values, or
// populate it directly and call Validate before New.
type Config struct {
	// Name prefixes every connection's name: "<Name>-<instance>#<seq>".
	Name string

	// Addr is the listen address, e.g. "0.0.0.0:8000" or ":0" for an
	// ephemeral port.
	Addr string

	// ThreadNum is the size of the I/O loop pool. Zero runs all
	// connections on the main loop.
	ThreadNum int

	// ReusePort enables SO_REUSEPORT on the listening socket.
	ReusePort bool

	// HighWaterMark overrides conn.DefaultHighWaterMark when positive.
	HighWaterMark int

	// PollTimeout bounds each loop's demultiplexer wait.
	PollTimeout time.Duration

	// Logger is used by every component the server constructs. Defaults
	// to logger.Default() when nil.
	Logger logger.Logger
}

// DefaultConfig returns a Config with the library's defaults: no reuse
// port, the default high-water-mark, a 10s poll timeout, and no I/O
// thread pool (everything runs on the main loop).
func DefaultConfig(name, addr string) Config {
	return Config{
		Name:          name,
		Addr:          addr,
		ThreadNum:     0,
		ReusePort:     false,
		HighWaterMark: conn.DefaultHighWaterMark,
		PollTimeout:   10 * time.Second,
	}
}

// Validate reports the first configuration problem found, following the
// hand-rolled-validation style used for small config structs rather than
// pulling in a struct-tag validator for a handful of fields.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("server: Name must not be empty")
	}
	if c.Addr == "" {
		return fmt.Errorf("server: Addr must not be empty")
	}
	if c.ThreadNum < 0 {
		return fmt.Errorf("server: ThreadNum must not be negative, got %d", c.ThreadNum)
	}
	if c.HighWaterMark < 0 {
		return fmt.Errorf("server: HighWaterMark must not be negative, got %d", c.HighWaterMark)
	}
	if c.PollTimeout < 0 {
		return fmt.Errorf("server: PollTimeout must not be negative, got %s", c.PollTimeout)
	}
	return nil
}
