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

// Package buffer implements the per-connection growable byte queue: a
// contiguous region with an 8-byte prepend area and two cursors, r <= w,
// plus the two vectored socket primitives a TcpConnection drives its
// read/write path with.
package buffer

import "golang.org/x/sys/unix"

const (
	// prependSize is the reserved prefix available to cheaply prepend a
	// header onto already-buffered bytes, without a copy of the payload.
	prependSize = 8

	// initialSize is the default writable capacity of a fresh Buffer.
	initialSize = 1024

	// overflowScratch is the size of the on-stack segment a ReadFromFD
	// vectored read spills into once the buffer's own writable tail is
	// exhausted, guaranteeing one syscall can absorb up to 64 KiB even
	// when the buffer itself is still small.
	overflowScratch = 65536
)

// Buffer is a growable byte queue. The zero value is not usable; build one
// with New.
type Buffer struct {
	buf []byte
	r   int
	w   int
}

// New returns a Buffer with prependSize bytes reserved for prepending plus
// initialSize bytes of writable tail.
func New() *Buffer {
	return &Buffer{
		buf: make([]byte, prependSize+initialSize),
		r:   prependSize,
		w:   prependSize,
	}
}

// ReadableBytes is the number of bytes available to Peek/Retrieve.
func (b *Buffer) ReadableBytes() int { return b.w - b.r }

// WritableBytes is the number of bytes available before Append must grow
// or compact the buffer.
func (b *Buffer) WritableBytes() int { return len(b.buf) - b.w }

// PrependableBytes is the number of bytes currently free before the read
// cursor, available for a cheap header prepend.
func (b *Buffer) PrependableBytes() int { return b.r }

// Peek returns the readable region without advancing the read cursor. The
// returned slice aliases the Buffer's storage and is invalidated by the
// next mutating call.
func (b *Buffer) Peek() []byte { return b.buf[b.r:b.w] }

// Retrieve advances the read cursor by n bytes. If n is at least
// ReadableBytes, both cursors reset to the start of the prepend area.
func (b *Buffer) Retrieve(n int) {
	if n >= b.ReadableBytes() {
		b.RetrieveAll()
		return
	}
	b.r += n
}

// RetrieveAll drains the buffer, resetting both cursors to prependSize.
func (b *Buffer) RetrieveAll() {
	b.r = prependSize
	b.w = prependSize
}

// RetrieveAllAsString drains the buffer and returns its prior readable
// content as a string.
func (b *Buffer) RetrieveAllAsString() string {
	s := string(b.Peek())
	b.RetrieveAll()
	return s
}

// Append copies data onto the writable tail, growing or compacting the
// buffer first if necessary.
func (b *Buffer) Append(data []byte) {
	b.ensureWritable(len(data))
	b.w += copy(b.buf[b.w:], data)
}

// ensureWritable guarantees WritableBytes() >= n, either by compacting the
// already-read prefix back to the start of the buffer or, if that alone
// wouldn't make enough room, by growing the backing array.
func (b *Buffer) ensureWritable(n int) {
	if b.WritableBytes() >= n {
		return
	}
	if b.WritableBytes()+(b.r-prependSize) >= n {
		readable := b.ReadableBytes()
		copy(b.buf[prependSize:], b.buf[b.r:b.w])
		b.r = prependSize
		b.w = prependSize + readable
		return
	}
	grown := make([]byte, b.w+n)
	copy(grown, b.buf[:b.w])
	b.buf = grown
}

// ReadFromFD performs a two-segment vectored read: one segment over the
// buffer's own writable tail, the other over a 64 KiB on-stack scratch
// array, so a single syscall can absorb a burst larger than the buffer's
// current capacity without a premature resize. On success the buffer
// grows to hold whatever landed in the scratch segment. On failure the
// buffer is left untouched and the raw (negative) return value is handed
// back alongside the error.
func (b *Buffer) ReadFromFD(fd int) (int, error) {
	writable := b.WritableBytes()

	var scratch [overflowScratch]byte
	iov := [][]byte{b.buf[b.w:], scratch[:]}

	n, err := unix.Readv(fd, iov)
	if err != nil {
		return n, err
	}
	if n <= 0 {
		return n, nil
	}

	if n <= writable {
		b.w += n
	} else {
		b.w = len(b.buf)
		b.Append(scratch[:n-writable])
	}
	return n, nil
}

// WriteToFD writes the readable region in a single syscall. On success the
// caller is responsible for calling Retrieve(n); the buffer is never
// mutated by WriteToFD itself.
func (b *Buffer) WriteToFD(fd int) (int, error) {
	return unix.Write(fd, b.Peek())
}
