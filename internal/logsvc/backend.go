package logsvc

// Backend abstracts the storage underlying the Log Service so that the
// in-process ring and an external character device can share the same
// ingest/read/seek contract.
type Backend interface {
	// Ingest appends chunk to whatever in-progress entry the backend is
	// accumulating, committing it once a line terminator arrives.
	Ingest(chunk []byte) error
	// ReadFrom returns up to one entry's worth of bytes starting at the
	// absolute position pos, the position immediately after those
	// bytes, and whether pos was at or past the end of the log.
	ReadFrom(pos int64) (data []byte, next int64, eof bool, err error)
	// SeekTo resolves (entryIndex, byteOffset) to an absolute position.
	SeekTo(entryIndex int, byteOffset int64) (int64, error)
	// SupportsEviction reports whether committing a new entry may evict
	// the oldest resident entry.
	SupportsEviction() bool
	// SupportsTimer reports whether the periodic timestamp writer may
	// run against this backend.
	SupportsTimer() bool
	// PeriodicTimestamp ingests a freshly rendered timestamp line. It is
	// only ever called when SupportsTimer reports true.
	PeriodicTimestamp(formatted []byte) error
	// Close releases backend resources, removing any shadow file.
	Close() error
}
