package logsvc

import (
	"fmt"
	"io"
	"os"

	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
	"github.com/aesdsocket/aesdsocketd/internal/metrics"
)

// deviceBackend forwards ingest and read to an external character
// device (the kernel aesd-char-driver module, opened at device_path).
// The device itself owns entry framing, eviction, and (on Linux) the
// AESDCHAR_IOCSEEKTO ioctl; this backend never maintains its own copy
// of the log. Eviction and the periodic timer are disabled here,
// matching original_source's #if (USE_AESD_CHAR_DEVICE == 0) guards.
type deviceBackend struct {
	file *os.File
}

func newDeviceBackend(path string) (*deviceBackend, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("deviceBackend: opening %s: %w", path, aesderr.ErrIO)
	}
	return &deviceBackend{file: f}, nil
}

func (b *deviceBackend) Ingest(chunk []byte) error {
	if _, err := b.file.Write(chunk); err != nil {
		return fmt.Errorf("deviceBackend: write: %w", aesderr.ErrIO)
	}
	metrics.BytesIngestedTotal.Add(float64(len(chunk)))
	return nil
}

func (b *deviceBackend) ReadFrom(pos int64) (data []byte, next int64, eof bool, err error) {
	if _, err := b.file.Seek(pos, io.SeekStart); err != nil {
		return nil, pos, false, fmt.Errorf("deviceBackend: seek: %w", aesderr.ErrIO)
	}

	buf := make([]byte, 4096)
	n, readErr := b.file.Read(buf)
	if n == 0 {
		if readErr == io.EOF || readErr == nil {
			return nil, pos, true, nil
		}
		return nil, pos, false, fmt.Errorf("deviceBackend: read: %w", aesderr.ErrIO)
	}
	return buf[:n], pos + int64(n), false, nil
}

func (b *deviceBackend) SeekTo(entryIndex int, byteOffset int64) (int64, error) {
	return deviceIoctlSeek(b.file, entryIndex, byteOffset)
}

func (b *deviceBackend) SupportsEviction() bool { return false }
func (b *deviceBackend) SupportsTimer() bool    { return false }

func (b *deviceBackend) PeriodicTimestamp([]byte) error {
	return fmt.Errorf("deviceBackend: periodic timestamp: %w", aesderr.ErrUnsupported)
}

func (b *deviceBackend) Close() error {
	if err := b.file.Close(); err != nil {
		return fmt.Errorf("deviceBackend: close: %w", aesderr.ErrIO)
	}
	return nil
}
