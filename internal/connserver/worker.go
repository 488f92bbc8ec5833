// Package connserver implements the per-connection worker: it appends
// received bytes to the shared log and echoes the log back on every
// newline boundary, honouring the out-of-band seek command.
package connserver

import (
	"bufio"
	"errors"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
	"github.com/aesdsocket/aesdsocketd/internal/control"
	"github.com/aesdsocket/aesdsocketd/internal/logsvc"
	"github.com/aesdsocket/aesdsocketd/internal/metrics"
)

// Worker owns exactly one accepted connection for its lifetime.
type Worker struct {
	svc       *logsvc.Service
	log       *zap.SugaredLogger
	chunkSize int
}

// New returns a Worker that reads chunkSize bytes at a time and ingests
// into svc.
func New(svc *logsvc.Service, log *zap.SugaredLogger, chunkSize int) *Worker {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	return &Worker{svc: svc, log: log, chunkSize: chunkSize}
}

// Serve runs the read-ingest-echo loop until the peer closes the
// connection or an unrecoverable I/O error occurs. It never returns an
// error that should propagate to the supervisor: a single worker's I/O
// failure is isolated from the rest of the system.
func (w *Worker) Serve(conn net.Conn) {
	peer := conn.RemoteAddr().String()
	log := w.log.With("peer", peer)
	log.Debugw("accepted connection")
	defer log.Debugw("closed connection")
	defer conn.Close()

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	var readCursor int64
	buf := make([]byte, w.chunkSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := buf[:n]

			if cmd, ok := control.Decode(chunk); ok {
				pos, seekErr := w.svc.SeekTo(cmd.EntryIndex, cmd.ByteOffset)
				if seekErr != nil {
					metrics.ControlCommandsTotal.WithLabelValues("invalid").Inc()
					log.Debugw("control command rejected, cursor unchanged", "error", seekErr)
				} else {
					metrics.ControlCommandsTotal.WithLabelValues("ok").Inc()
					readCursor = pos
				}
			} else {
				accepted, wantsEcho, fatal := w.ingestAndWantsEcho(chunk, log)
				if fatal {
					return
				}
				if accepted && wantsEcho {
					if !w.echo(conn, &readCursor, log) {
						return
					}
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			log.Debugw("read failed, terminating worker", "error", err)
			return
		}
	}
}

// ingestAndWantsEcho calls IngestBytes and reports whether the chunk was
// accepted (false only on ErrResourceExhausted, which the worker simply
// logs and drops), whether it contained a line terminator that triggers
// an echo, and whether the connection must be torn down: an ErrIO from
// the backend means the worker terminates, leaving other workers
// unaffected.
func (w *Worker) ingestAndWantsEcho(chunk []byte, log *zap.SugaredLogger) (accepted bool, wantsEcho bool, fatal bool) {
	containsNewline := false
	for _, c := range chunk {
		if c == '\n' {
			containsNewline = true
			break
		}
	}

	if err := w.svc.IngestBytes(chunk); err != nil {
		if errors.Is(err, aesderr.ErrIO) {
			log.Warnw("ingest failed, terminating worker", "error", err, "len", len(chunk))
			return false, false, true
		}
		if errors.Is(err, aesderr.ErrResourceExhausted) {
			log.Warnw("dropping chunk, accumulator exhausted", "error", err, "len", len(chunk))
			return false, false, false
		}
		log.Warnw("ingest failed", "error", err)
		return false, false, false
	}

	return true, containsNewline, false
}

// echo replays the log from *readCursor through EOF, then resets
// *readCursor to 0. It reports false if the send failed (a broken pipe
// terminates the worker silently; no data loss in the log occurs).
func (w *Worker) echo(conn net.Conn, readCursor *int64, log *zap.SugaredLogger) bool {
	bw := bufio.NewWriter(conn)
	cursor := *readCursor

	for {
		data, next, eof, err := w.svc.ReadStream(cursor)
		if err != nil {
			log.Warnw("read_stream failed", "error", err)
			return false
		}
		if eof {
			break
		}
		if _, err := bw.Write(data); err != nil {
			log.Debugw("send failed, terminating worker", "error", err)
			return false
		}
		cursor = next
	}

	if err := bw.Flush(); err != nil {
		log.Debugw("flush failed, terminating worker", "error", err)
		return false
	}

	*readCursor = 0
	return true
}
