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

package buffer

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sys/unix"
)

var _ = Describe("Buffer", func() {
	It("starts with the 8-byte prepend area and no readable bytes", func() {
		b := New()
		Expect(b.ReadableBytes()).To(Equal(0))
		Expect(b.PrependableBytes()).To(Equal(prependSize))
		Expect(b.WritableBytes()).To(Equal(initialSize))
	})

	It("round-trips append/retrieveAllAsString", func() {
		b := New()
		b.Append([]byte("hello\n"))
		Expect(b.RetrieveAllAsString()).To(Equal("hello\n"))
		Expect(b.ReadableBytes()).To(Equal(0))
	})

	It("resets cursors to the prepend area once fully drained", func() {
		b := New()
		b.Append([]byte("abc"))
		b.Retrieve(100) // n >= readable
		Expect(b.r).To(Equal(prependSize))
		Expect(b.w).To(Equal(prependSize))
	})

	It("compacts instead of growing when the prependable region has room", func() {
		b := New()
		b.Append(bytes.Repeat([]byte{'x'}, initialSize-16))
		b.Retrieve(initialSize - 16) // drain everything, r==w==8 via fast path
		b.Append(bytes.Repeat([]byte{'y'}, 500))
		b.Retrieve(200)

		capBefore := len(b.buf)
		// 600 > 524 bytes of writable tail, but <= 524 + 200 reclaimable prefix
		b.Append(bytes.Repeat([]byte{'z'}, 600))
		Expect(len(b.buf)).To(Equal(capBefore), "compaction should not have needed to grow the backing array")
	})

	It("grows the backing array when compaction would not free enough room", func() {
		b := New()
		huge := bytes.Repeat([]byte{'q'}, initialSize*3)
		b.Append(huge)
		Expect(b.ReadableBytes()).To(Equal(len(huge)))
		Expect(bytes.Equal(b.Peek(), huge)).To(BeTrue())
	})

	It("absorbs a burst larger than 64 KiB into the scratch overflow segment", func() {
		fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
		Expect(err).ToNot(HaveOccurred())
		defer unix.Close(fds[0])
		defer unix.Close(fds[1])

		payload := bytes.Repeat([]byte{'a'}, 70000)
		done := make(chan error, 1)
		go func() {
			_, werr := unix.Write(fds[1], payload)
			done <- werr
		}()

		b := New()
		// shrink the writable tail so the overflow path is exercised deterministically
		b.buf = b.buf[:prependSize+100]
		b.w = prependSize

		var total int
		for total < len(payload) {
			n, rerr := b.ReadFromFD(fds[0])
			Expect(rerr).ToNot(HaveOccurred())
			total += n
		}
		Expect(<-done).ToNot(HaveOccurred())
		Expect(total).To(Equal(len(payload)))
		Expect(b.ReadableBytes()).To(Equal(len(payload)))
		Expect(bytes.Equal(b.Peek(), payload)).To(BeTrue())
	})

	It("writes the readable region to an fd and leaves the buffer for the caller to retrieve", func() {
		fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
		Expect(err).ToNot(HaveOccurred())
		defer unix.Close(fds[0])
		defer unix.Close(fds[1])

		b := New()
		b.Append([]byte("world"))

		n, werr := b.WriteToFD(fds[0])
		Expect(werr).ToNot(HaveOccurred())
		Expect(n).To(Equal(5))
		Expect(b.ReadableBytes()).To(Equal(5), "WriteToFD must not mutate the buffer itself")

		b.Retrieve(n)
		Expect(b.ReadableBytes()).To(Equal(0))

		out := make([]byte, 5)
		_, rerr := unix.Read(fds[1], out)
		Expect(rerr).ToNot(HaveOccurred())
		Expect(string(out)).To(Equal("world"))
	})

	It("leaves the buffer untouched and returns the raw result on a failed read", func() {
		fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
		Expect(err).ToNot(HaveOccurred())
		unix.Close(fds[0]) // closed fd: read must fail

		b := New()
		n, rerr := b.ReadFromFD(fds[0])
		Expect(rerr).To(HaveOccurred())
		Expect(n).To(BeNumerically("<=", 0))
		Expect(b.ReadableBytes()).To(Equal(0))

		unix.Close(fds[1])
	})
})
