//go:build !linux

package logsvc

import (
	"fmt"
	"os"

	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
)

// deviceIoctlSeek has no portable equivalent outside Linux; the
// character-device backend is Linux-only (it targets a real
// aesd-char-driver kernel module).
func deviceIoctlSeek(f *os.File, entryIndex int, byteOffset int64) (int64, error) {
	return 0, fmt.Errorf("deviceBackend: AESDCHAR_IOCSEEKTO is only supported on linux: %w", aesderr.ErrUnsupported)
}
