// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Transport owns the serial byte stream for the duration of a session. It
// provides exact-length reads, writes and a timeout-wrapped request/response
// primitive. Exactly one read may be outstanding at a time; the receive
// buffer is not reentrant, so a second concurrent ReadExact fails with
// ErrBusy instead of interleaving.
type Transport struct {
	rw  io.ReadWriteCloser
	log *zap.SugaredLogger

	rx      chan []byte
	readErr error // valid once rx is closed
	pending []byte

	inFlight  atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewTransport wraps an open byte stream. The pump goroutine it starts is
// stopped by Close. logger may be nil.
func NewTransport(rw io.ReadWriteCloser, logger *zap.SugaredLogger) *Transport {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	t := &Transport{
		rw:     rw,
		log:    logger,
		rx:     make(chan []byte, 64),
		closed: make(chan struct{}),
	}
	go t.pump()
	return t
}

// pump moves bytes from the underlying stream into the receive channel in
// chunks until the stream errors or the transport is closed.
func (t *Transport) pump() {
	buf := make([]byte, 512)
	for {
		n, err := t.rw.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.rx <- chunk:
			case <-t.closed:
				return
			}
		}
		if err != nil {
			t.readErr = err
			close(t.rx)
			return
		}
		select {
		case <-t.closed:
			return
		default:
		}
	}
}

// WriteBytes sends buf to the device in a single write.
func (t *Transport) WriteBytes(buf []byte) error {
	select {
	case <-t.closed:
		return ErrNotConnected
	default:
	}
	n, err := t.rw.Write(buf)
	if err != nil {
		return fmt.Errorf("dm32: write: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("dm32: short write: %d of %d bytes", n, len(buf))
	}
	t.log.Debugf("tx %s", hexDump(buf, 32))
	return nil
}

// ReadExact blocks until exactly n bytes have accumulated, pulling from the
// stream in chunks, or fails with a TimeoutError naming op. Surplus bytes are
// kept for the next read.
func (t *Transport) ReadExact(op string, n int, timeout time.Duration) ([]byte, error) {
	if !t.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer t.inFlight.Store(false)

	out := make([]byte, 0, n)
	if len(t.pending) > 0 {
		take := len(t.pending)
		if take > n {
			take = n
		}
		out = append(out, t.pending[:take]...)
		t.pending = t.pending[take:]
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for len(out) < n {
		select {
		case chunk, ok := <-t.rx:
			if !ok {
				if t.readErr != nil && t.readErr != io.EOF {
					return nil, fmt.Errorf("dm32: %s: stream error: %w", op, t.readErr)
				}
				return nil, fmt.Errorf("dm32: %s: %w", op, io.ErrUnexpectedEOF)
			}
			need := n - len(out)
			if len(chunk) > need {
				out = append(out, chunk[:need]...)
				t.pending = append(t.pending, chunk[need:]...)
			} else {
				out = append(out, chunk...)
			}
		case <-timer.C:
			return nil, &TimeoutError{Op: op, Timeout: timeout}
		case <-t.closed:
			return nil, ErrNotConnected
		}
	}
	t.log.Debugf("rx %s: %s", op, hexDump(out, 32))
	return out, nil
}

// Exchange writes cmd and reads an exact-length reply under one timeout.
func (t *Transport) Exchange(op string, cmd []byte, respLen int, timeout time.Duration) ([]byte, error) {
	if err := t.WriteBytes(cmd); err != nil {
		return nil, err
	}
	return t.ReadExact(op, respLen, timeout)
}

// Close releases the stream. It is idempotent and safe to call at any time.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.closeErr = t.rw.Close()
	})
	return t.closeErr
}
