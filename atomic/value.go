/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Package atomic provides a type-safe generic wrapper around sync/atomic.Value,
// trimmed from nabbar-golib/atomic's Value[T] (default-load/default-store
// support dropped — the reactor core never needs a zero-value substitute).
// It is reserved for state that is not a plain bool/int64 — sync/atomic's
// own Bool/Int64/Int32 cover those directly — such as a TcpConnection's
// state enum or an EventLoop's last poll-return timestamp.
package atomic

import "sync/atomic"

// Value is a lock-free, type-safe box for a single value of type T.
type Value[T any] struct {
	v atomic.Value
}

type box[T any] struct {
	val T
}

// NewValue creates a Value already holding init.
func NewValue[T any](init T) *Value[T] {
	v := &Value[T]{}
	v.Store(init)
	return v
}

// Load returns the current value, or the zero value of T if Store was
// never called.
func (o *Value[T]) Load() T {
	if o == nil {
		var zero T
		return zero
	}
	if b, ok := o.v.Load().(box[T]); ok {
		return b.val
	}
	var zero T
	return zero
}

// Store sets the current value.
func (o *Value[T]) Store(val T) {
	o.v.Store(box[T]{val: val})
}

// Swap atomically stores new and returns the previous value.
func (o *Value[T]) Swap(new T) (old T) {
	if prev, ok := o.v.Swap(box[T]{val: new}).(box[T]); ok {
		return prev.val
	}
	return old
}
