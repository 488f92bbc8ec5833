// Package aesderr defines the error kinds shared across the log service,
// the circular log, and the connection workers.
package aesderr

import "errors"

// ErrInvalidArgument marks a seek target out of range, an unoccupied
// slot, or a malformed control command. Callers surface this as "ignored,
// state unchanged" and never report it to the peer.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrResourceExhausted marks an allocation failure while extending the
// accumulation buffer or creating an entry. The caller must leave its
// input unchanged and drop the chunk that triggered it.
var ErrResourceExhausted = errors.New("resource exhausted")

// ErrIO marks a transport or backing-store failure. The affected worker
// terminates; other workers are unaffected.
var ErrIO = errors.New("i/o failure")

// ErrFatal marks a bind/listen failure or guard corruption at startup.
// It unwinds to the supervisor, which logs and exits non-zero.
var ErrFatal = errors.New("fatal")

// ErrUnsupported marks an operation not supported by the active backend,
// such as the periodic timestamp on a device-backed log service.
var ErrUnsupported = errors.New("unsupported by backend")
