// Package acclog holds the single in-progress entry accumulated between
// commits to the circular log.
package acclog

import (
	"bytes"
	"fmt"

	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
	"github.com/aesdsocket/aesdsocketd/pkg/circularlog"
)

// Accumulator is the growable buffer representing the partially-received
// current entry. It is not safe for concurrent use.
type Accumulator struct {
	buf []byte
	max int
}

// New returns an empty Accumulator. maxBytes bounds how large the
// in-progress buffer may grow before Ingest reports ErrResourceExhausted;
// zero means unbounded.
func New(maxBytes int) *Accumulator {
	return &Accumulator{max: maxBytes}
}

// Len reports the number of bytes currently buffered.
func (a *Accumulator) Len() int {
	return len(a.buf)
}

// Bytes returns the buffered bytes. The slice is owned by the
// Accumulator and must not be retained past the next call to Ingest.
func (a *Accumulator) Bytes() []byte {
	return a.buf
}

// Ingest concatenates chunk onto the buffer. If the updated buffer
// contains at least one line feed, the whole buffer is committed as a
// single circularlog.Entry and the accumulator is reset to empty -- one
// commit per Ingest call, never one commit per line feed (see
// DESIGN.md, Open Question 1).
//
// On ErrResourceExhausted the accumulator is left exactly as it was
// before the call.
func (a *Accumulator) Ingest(chunk []byte) (committed *circularlog.Entry, err error) {
	if a.max > 0 && len(a.buf)+len(chunk) > a.max {
		return nil, fmt.Errorf("acclog: accumulator would grow past %d bytes: %w", a.max, aesderr.ErrResourceExhausted)
	}

	a.buf = append(a.buf, chunk...)

	if !bytes.ContainsRune(a.buf, '\n') {
		return nil, nil
	}

	entry := &circularlog.Entry{Bytes: a.buf}
	a.buf = nil
	return entry, nil
}
