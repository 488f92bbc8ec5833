// Package logsvc owns the circular log and accumulation buffer behind a
// single exclusive guard, and exposes the operations the connection
// workers and the periodic timer use.
package logsvc

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
	"github.com/aesdsocket/aesdsocketd/internal/config"
)

// Service wraps a Backend under a single sync.Mutex. There is
// deliberately no reader-writer split: echo paths are as
// mutation-frequent as ingest paths, so one exclusive guard is both
// simpler and sufficient.
type Service struct {
	mu      sync.Mutex
	backend Backend
	log     *zap.SugaredLogger
}

// New constructs a Service for the backend selected by cfg.
func New(cfg *config.Config, log *zap.SugaredLogger) (*Service, error) {
	// maxAcc bounds the in-progress accumulator well above any single
	// entry a well-behaved client is expected to send, while still
	// giving ErrResourceExhausted a concrete trigger.
	const maxAccMultiplier = 65536
	maxAcc := int(cfg.ChunkSize.Bytes()) * maxAccMultiplier
	var backend Backend
	var err error

	switch cfg.Backend {
	case config.BackendRing:
		backend, err = newRingBackend(cfg.RingCapacity, maxAcc, cfg.ShadowPath)
	case config.BackendDevice:
		backend, err = newDeviceBackend(cfg.DevicePath)
	default:
		return nil, fmt.Errorf("logsvc: unknown backend %q: %w", cfg.Backend, aesderr.ErrFatal)
	}
	if err != nil {
		return nil, err
	}

	return &Service{backend: backend, log: log}, nil
}

// IngestBytes appends b to the in-progress entry, committing it if a
// line terminator has arrived.
func (s *Service) IngestBytes(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Ingest(b); err != nil {
		s.log.Warnw("ingest failed", "error", err, "len", len(b))
		return err
	}
	return nil
}

// ReadStream returns up to one entry's worth of bytes starting at
// cursor, along with the cursor to resume from and whether cursor was
// at or past the end of the log. Sequential calls from 0 yield the
// concatenation of every resident entry in logical order.
func (s *Service) ReadStream(cursor int64) (data []byte, next int64, eof bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.ReadFrom(cursor)
}

// SeekTo resolves (entryIndex, byteOffset) to an absolute position. On
// error the caller must leave its own read cursor unchanged.
func (s *Service) SeekTo(entryIndex int, byteOffset int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.backend.SeekTo(entryIndex, byteOffset)
	if err != nil {
		s.log.Debugw("seek rejected", "entry_index", entryIndex, "byte_offset", byteOffset, "error", err)
		return 0, err
	}
	return pos, nil
}

// PeriodicTimestampsEnabled reports whether the active backend supports
// the periodic timestamp writer.
func (s *Service) PeriodicTimestampsEnabled() bool {
	return s.backend.SupportsTimer()
}

// PeriodicTimestamp ingests a freshly rendered timestamp line.
func (s *Service) PeriodicTimestamp(formatted []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.PeriodicTimestamp(formatted)
}

// Close releases the backend, removing any shadow file.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Close()
}
