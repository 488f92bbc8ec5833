package logsvc

import (
	"fmt"
	"io"
	"os"

	"github.com/aesdsocket/aesdsocketd/internal/acclog"
	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
	"github.com/aesdsocket/aesdsocketd/internal/metrics"
	"github.com/aesdsocket/aesdsocketd/pkg/circularlog"
)

// ringBackend is the in-process circular log backend. Committed entries
// are additionally shadowed to a plain file, truncated on start and
// removed on Close.
type ringBackend struct {
	ring       *circularlog.Buffer
	acc        *acclog.Accumulator
	shadow     *os.File
	shadowPath string
}

// newRingBackend creates the in-process backend with capacity N and a
// shadow file at shadowPath, truncating it if it already exists.
func newRingBackend(capacity int, maxAccBytes int, shadowPath string) (*ringBackend, error) {
	shadow, err := os.OpenFile(shadowPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ringBackend: opening shadow file %s: %w", shadowPath, aesderr.ErrIO)
	}
	return &ringBackend{
		ring:       circularlog.New(capacity),
		acc:        acclog.New(maxAccBytes),
		shadow:     shadow,
		shadowPath: shadowPath,
	}, nil
}

func (b *ringBackend) Ingest(chunk []byte) error {
	committed, err := b.acc.Ingest(chunk)
	if err != nil {
		return err
	}
	metrics.BytesIngestedTotal.Add(float64(len(chunk)))
	if committed == nil {
		return nil
	}

	// Append to the ring first: acc.Ingest already nilled its internal
	// buffer and handed us the only reference to committed.Bytes, so a
	// shadow-write failure below must not drop the entry from the log,
	// only be reported as this call's error.
	evicted := b.ring.Append(committed)
	metrics.EntriesTotal.Inc()
	metrics.RingTotalBytes.Set(float64(b.ring.TotalBytes()))
	if evicted != nil {
		metrics.EntriesEvictedTotal.Inc()
	}

	if _, err := b.shadow.Write(committed.Bytes); err != nil {
		return fmt.Errorf("ringBackend: writing shadow file: %w", aesderr.ErrIO)
	}
	return nil
}

func (b *ringBackend) ReadFrom(pos int64) (data []byte, next int64, eof bool, err error) {
	idx, offset, ok := b.ring.LocateByAbsolute(pos)
	if !ok {
		return nil, pos, true, nil
	}
	entry, _ := b.ring.EntryAt(idx)
	data = entry.Bytes[offset:]
	return data, pos + int64(len(data)), false, nil
}

func (b *ringBackend) SeekTo(entryIndex int, byteOffset int64) (int64, error) {
	return b.ring.LocateByIndex(entryIndex, byteOffset)
}

func (b *ringBackend) SupportsEviction() bool { return true }
func (b *ringBackend) SupportsTimer() bool    { return true }

func (b *ringBackend) PeriodicTimestamp(formatted []byte) error {
	return b.Ingest(formatted)
}

func (b *ringBackend) Close() error {
	closeErr := b.shadow.Close()
	removeErr := os.Remove(b.shadowPath)
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return fmt.Errorf("ringBackend: removing shadow file: %w", aesderr.ErrIO)
	}
	if closeErr != nil {
		return fmt.Errorf("ringBackend: closing shadow file: %w", aesderr.ErrIO)
	}
	return nil
}

var _ io.Closer = (*ringBackend)(nil)
