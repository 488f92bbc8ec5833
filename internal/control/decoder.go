// Package control decodes the out-of-band seek command that repositions
// a connection's read cursor instead of being appended to the log.
package control

import (
	"regexp"
	"strconv"
)

// seekCommand matches the literal AESDCHAR_IOCSEEKTO:X,Y\n framing. It
// operates on a single chunk as received; it never reassembles across
// reads.
var seekCommand = regexp.MustCompile(`^AESDCHAR_IOCSEEKTO:([0-9]+),([0-9]+)\n$`)

// SeekTo is the decoded (entry index, byte offset) pair from a control
// command.
type SeekTo struct {
	EntryIndex int
	ByteOffset int64
}

// Decode reports whether chunk is exactly the seek-command framing, and
// if so returns the parsed (entry index, byte offset) pair. A partial
// match, a missing trailing newline, or integers too large to parse all
// report ok == false -- the caller treats the chunk as ordinary bytes to
// append in that case.
func Decode(chunk []byte) (cmd SeekTo, ok bool) {
	m := seekCommand.FindSubmatch(chunk)
	if m == nil {
		return SeekTo{}, false
	}

	entryIndex, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return SeekTo{}, false
	}
	byteOffset, err := strconv.ParseInt(string(m[2]), 10, 64)
	if err != nil {
		return SeekTo{}, false
	}

	return SeekTo{EntryIndex: entryIndex, ByteOffset: byteOffset}, true
}
