// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// chunkStream is an in-memory io.ReadWriteCloser whose read side is fed by
// the test. Reads block until data arrives or the stream closes.
type chunkStream struct {
	mu     sync.Mutex
	cond   *sync.Cond
	rxbuf  bytes.Buffer
	txbuf  bytes.Buffer
	closed bool
}

func newChunkStream() *chunkStream {
	s := &chunkStream{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *chunkStream) feed(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rxbuf.Write(p)
	s.cond.Broadcast()
}

func (s *chunkStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.rxbuf.Len() == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.rxbuf.Len() == 0 {
		return 0, io.EOF
	}
	return s.rxbuf.Read(p)
}

func (s *chunkStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	return s.txbuf.Write(p)
}

func (s *chunkStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
	return nil
}

func TestReadExact_AssemblesChunks(t *testing.T) {
	stream := newChunkStream()
	tr := NewTransport(stream, nil)
	defer tr.Close()

	stream.feed([]byte("AB"))
	stream.feed([]byte("CDE"))

	out, err := tr.ReadExact("test", 4, time.Second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(out) != "ABCD" {
		t.Errorf("expected ABCD, got %q", out)
	}

	// The surplus byte must be kept for the next read.
	out, err = tr.ReadExact("test", 1, time.Second)
	if err != nil {
		t.Fatalf("read surplus: %v", err)
	}
	if string(out) != "E" {
		t.Errorf("expected E, got %q", out)
	}
}

func TestReadExact_Timeout(t *testing.T) {
	stream := newChunkStream()
	tr := NewTransport(stream, nil)
	defer tr.Close()

	_, err := tr.ReadExact("probe", 1, 30*time.Millisecond)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestReadExact_Busy(t *testing.T) {
	stream := newChunkStream()
	tr := NewTransport(stream, nil)
	defer tr.Close()

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		tr.ReadExact("slow", 1, time.Second)
		close(done)
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	if _, err := tr.ReadExact("second", 1, time.Second); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	stream.feed([]byte{0x06})
	<-done
}

func TestReadExact_StreamEnds(t *testing.T) {
	stream := newChunkStream()
	tr := NewTransport(stream, nil)

	stream.Close()
	_, err := tr.ReadExact("probe", 1, time.Second)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
	tr.Close()
}

func TestTransportClose_Idempotent(t *testing.T) {
	stream := newChunkStream()
	tr := NewTransport(stream, nil)

	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := tr.WriteBytes([]byte{0x01}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected after close, got %v", err)
	}
}

func TestExchange(t *testing.T) {
	stream := newChunkStream()
	tr := NewTransport(stream, nil)
	defer tr.Close()

	stream.feed([]byte{0x06, 0x01})
	out, err := tr.Exchange("probe", []byte("PSEARCH"), 2, time.Second)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if out[0] != 0x06 || out[1] != 0x01 {
		t.Errorf("unexpected reply % X", out)
	}
	stream.mu.Lock()
	sent := stream.txbuf.String()
	stream.mu.Unlock()
	if sent != "PSEARCH" {
		t.Errorf("expected PSEARCH on the wire, got %q", sent)
	}
}
