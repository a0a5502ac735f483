// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors surfaced by the session layer.
var (
	// ErrDeviceNotFound is returned when the model probe gets anything other
	// than an ACK-led reply. Usually the radio is off or on the wrong port.
	ErrDeviceNotFound = errors.New("dm32: device not found")

	// ErrUnsupportedModel is returned when the radio answers the model probe
	// with a model string this package does not know.
	ErrUnsupportedModel = errors.New("dm32: unsupported model")

	// ErrHandshakeFailed is returned for any other deviation during the
	// connect sequence. The connect attempt is aborted, not retried.
	ErrHandshakeFailed = errors.New("dm32: handshake failed")

	// ErrNotConnected is returned by operations that need an open session.
	ErrNotConnected = errors.New("dm32: not connected")

	// ErrAlreadyConnected is returned by Connect when a session is active.
	// The serial stream is exclusively owned for the session's duration.
	ErrAlreadyConnected = errors.New("dm32: session already connected")

	// ErrBusy is returned when a second read is attempted while one is
	// outstanding. The receive buffer is not reentrant.
	ErrBusy = errors.New("dm32: transport busy")

	// ErrMissingMemoryRange is returned when the radio never reports its
	// configuration memory range (info frame 4). Discovery cannot run
	// without it.
	ErrMissingMemoryRange = errors.New("dm32: device did not report configuration memory range")

	// ErrNoBulkRead is returned by decode accessors before BulkRead has
	// populated the cache.
	ErrNoBulkRead = errors.New("dm32: no bulk read performed")

	// ErrWriteNotAcknowledged is returned when a block write gets no ACK.
	// Device state must be considered inconsistent; callers should run a
	// fresh read-verify cycle.
	ErrWriteNotAcknowledged = errors.New("dm32: write not acknowledged")
)

// TimeoutError reports an exchange that did not complete in time. It cancels
// only that exchange; the caller must disconnect and retry the whole session.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("dm32: %s timed out after %s", e.Op, e.Timeout)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// RecordError reports a single malformed record. Decoding logs it, skips the
// record and continues; one bad record never aborts the batch.
type RecordError struct {
	Kind   BlockKind
	Index  int
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("dm32: bad %s record %d: %s", e.Kind, e.Index, e.Reason)
}
