// Package circularlog implements a fixed-capacity ring of committed,
// variable-length byte entries addressable both as a flat byte stream and
// by (logical index, byte offset) pairs.
package circularlog

import (
	"fmt"

	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
)

// Entry is a single committed, immutable byte sequence.
type Entry struct {
	Bytes []byte
}

// Len returns the byte length of the entry.
func (e *Entry) Len() int64 {
	if e == nil {
		return 0
	}
	return int64(len(e.Bytes))
}

// Buffer is a fixed-size ring of at most Capacity() entries. It is not
// safe for concurrent use; callers serialize access externally (see
// internal/logsvc, which owns the single exclusive guard for the whole
// system).
type Buffer struct {
	entries []*Entry
	in, out int
	full    bool
	total   int64
}

// New returns a Buffer holding at most capacity resident entries.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic("circularlog: capacity must be positive")
	}
	return &Buffer{entries: make([]*Entry, capacity)}
}

// Capacity returns N, the maximum number of resident entries.
func (b *Buffer) Capacity() int {
	return len(b.entries)
}

// Count returns the number of currently resident entries.
func (b *Buffer) Count() int {
	if b.full {
		return len(b.entries)
	}
	n := b.in - b.out
	if n < 0 {
		n += len(b.entries)
	}
	return n
}

// TotalBytes returns the sum of lengths of all resident entries.
func (b *Buffer) TotalBytes() int64 {
	return b.total
}

// Append places entry at the write slot, evicting and returning the
// oldest resident entry if the ring was already full.
func (b *Buffer) Append(entry *Entry) (evicted *Entry) {
	n := len(b.entries)
	wasFull := b.full

	if wasFull {
		evicted = b.entries[b.in]
	}
	b.entries[b.in] = entry
	b.total += entry.Len() - evicted.Len()

	if wasFull {
		b.out = (b.out + 1) % n
	}
	b.in = (b.in + 1) % n
	b.full = b.in == b.out

	return evicted
}

// EntryAt returns the resident entry at logical index i (0 is the oldest).
func (b *Buffer) EntryAt(i int) (*Entry, bool) {
	if i < 0 || i >= b.Count() {
		return nil, false
	}
	slot := (b.out + i) % len(b.entries)
	return b.entries[slot], true
}

// LocateByAbsolute walks resident entries in logical order, returning the
// entry containing absolute byte pos and the residual offset within it.
// It reports ok == false when pos >= TotalBytes() (EOF) or the buffer is
// empty.
func (b *Buffer) LocateByAbsolute(pos int64) (entryIndex int, byteOffset int64, ok bool) {
	if pos < 0 || pos >= b.total {
		return 0, 0, false
	}
	remaining := pos
	count := b.Count()
	for i := 0; i < count; i++ {
		entry, _ := b.EntryAt(i)
		length := entry.Len()
		if remaining < length {
			return i, remaining, true
		}
		remaining -= length
	}
	return 0, 0, false
}

// LocateByIndex validates (i, byteOffset) against the resident entry at
// logical index i and returns the absolute position that (i, byteOffset)
// denotes.
func (b *Buffer) LocateByIndex(i int, byteOffset int64) (int64, error) {
	if i < 0 || i >= len(b.entries) {
		return 0, fmt.Errorf("circularlog: index %d out of range [0,%d): %w", i, len(b.entries), aesderr.ErrInvalidArgument)
	}
	entry, ok := b.EntryAt(i)
	if !ok {
		return 0, fmt.Errorf("circularlog: slot at logical index %d is unoccupied: %w", i, aesderr.ErrInvalidArgument)
	}
	if byteOffset < 0 || byteOffset >= entry.Len() {
		return 0, fmt.Errorf("circularlog: byte offset %d out of range [0,%d) for entry %d: %w", byteOffset, entry.Len(), i, aesderr.ErrInvalidArgument)
	}

	var abs int64
	for idx := 0; idx < i; idx++ {
		e, _ := b.EntryAt(idx)
		abs += e.Len()
	}
	return abs + byteOffset, nil
}
