//go:build linux

package logsvc

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
)

// aesdSeekTo mirrors the kernel module's struct aesd_seekto: two
// unsigned 32-bit fields, write_cmd (logical entry index) and
// write_cmd_offset (byte offset within that entry).
type aesdSeekTo struct {
	writeCmd       uint32
	writeCmdOffset uint32
}

// aesdIOCMagic is the ioctl type byte from which aesdIOCSeekTo builds the
// request number _IOWR('z', 1, struct aesd_seekto). Like the struct
// layout above, it is a reconstruction of the driver's aesd_ioctl.h.
const aesdIOCMagic = 'z'

func aesdIOCSeekTo() uintptr {
	const size = unsafe.Sizeof(aesdSeekTo{})
	return unix.IOWR(aesdIOCMagic, 1, size)
}

func deviceIoctlSeek(f *os.File, entryIndex int, byteOffset int64) (int64, error) {
	if entryIndex < 0 || byteOffset < 0 {
		return 0, fmt.Errorf("deviceBackend: negative seek target: %w", aesderr.ErrInvalidArgument)
	}

	req := aesdSeekTo{
		writeCmd:       uint32(entryIndex),
		writeCmdOffset: uint32(byteOffset),
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), aesdIOCSeekTo(), uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return 0, fmt.Errorf("deviceBackend: AESDCHAR_IOCSEEKTO: %w: %w", errno, aesderr.ErrInvalidArgument)
	}

	pos, err := f.Seek(0, 1) // SEEK_CUR: the driver's ioctl already moved filp->f_pos
	if err != nil {
		return 0, fmt.Errorf("deviceBackend: reading resulting offset: %w", aesderr.ErrIO)
	}
	return pos, nil
}
