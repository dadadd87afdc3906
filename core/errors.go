package core

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by indexed reads when index >= count.
// Callers are expected to bound iteration with GetCount.
var ErrOutOfRange = errors.New("memory index out of range")

// ReadError marks a transport or decoding failure during a ledger query.
// It is distinct from absence: an empty memory set is (nil, nil), never a
// ReadError.
type ReadError struct {
	Op  string // "getLatestMemory", "getMemoryCount", "getMemory"
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("vault read %s: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError marks a failed append submission or finalization. The core
// never retries; callers decide whether to report or re-drive the write.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("vault write: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsRead reports whether err is (or wraps) a ReadError.
func IsRead(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}

// IsWrite reports whether err is (or wraps) a WriteError.
func IsWrite(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}
