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

package conn

import (
	"time"

	"github.com/nabbar/reactor/buffer"
)

// ConnectionCallback fires once on ConnectEstablished and again on the
// terminal transition to Disconnected; Connected() distinguishes the two.
type ConnectionCallback func(c *TcpConnection)

// MessageCallback fires whenever a read_from_fd call appended bytes to
// the input buffer. ts is the poll-return timestamp the bytes arrived
// under, not the time MessageCallback itself runs.
type MessageCallback func(c *TcpConnection, in *buffer.Buffer, ts time.Time)

// WriteCompleteCallback fires once the output buffer has been fully
// drained to the kernel.
type WriteCompleteCallback func(c *TcpConnection)

// HighWaterMarkCallback fires at most once per upward crossing of the
// high-water-mark, with the output buffer size observed at the crossing.
type HighWaterMarkCallback func(c *TcpConnection, size int)

// closedNotifier is the server's remove-connection hook: invoked with a
// strong reference once a connection has reached Disconnected, so the
// server can drop its table entry.
type closedNotifier func(c *TcpConnection)
