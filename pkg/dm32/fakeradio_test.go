// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
)

// fakeRadioConfig is the shared state behind a simulated radio: the memory
// image persists across connections, the way flash does across programming
// sessions. Each open() hands out a fresh connection over it.
type fakeRadioConfig struct {
	base       uint32
	image      []byte
	modelReply []byte
	frames     map[byte][]byte

	mu         sync.Mutex
	tagReads   int // 1-byte memory reads (discovery)
	blockReads int // 4096-byte memory reads (bulk read)
	writes     int // block writes
}

func newFakeRadioConfig(base uint32, image []byte) *fakeRadioConfig {
	end := base + uint32(len(image))
	memRange := make([]byte, 8)
	binary.LittleEndian.PutUint32(memRange[0:4], base)
	binary.LittleEndian.PutUint32(memRange[4:8], end)
	return &fakeRadioConfig{
		base:       base,
		image:      image,
		modelReply: []byte{respAck, 'D', 'M', '-', '3', '2', 0, 0},
		frames: map[byte][]byte{
			infoFirmware:  []byte("V2.03.05"),
			infoBuildDate: []byte("2025-11-02"),
			infoSerial:    []byte("2411D00123"),
			infoMemRange: memRange,
			// Two reversed-BCD bound pairs: 136-174 and 400-480 MHz.
			infoBandLimit: {
				0x00, 0x00, 0x60, 0x13, 0x00, 0x00, 0x40, 0x17,
				0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x48,
			},
		},
	}
}

func (c *fakeRadioConfig) open() (io.ReadWriteCloser, error) {
	return &fakeRadio{cfg: c, cond: sync.NewCond(&sync.Mutex{})}, nil
}

// fakeRadio simulates one serial connection to a DM-32. It answers every
// protocol command the package issues; commands arrive whole because the
// transport writes each frame in a single call.
type fakeRadio struct {
	cfg  *fakeRadioConfig
	cond *sync.Cond

	rxbuf     bytes.Buffer // device to host
	closed    bool
	progState int // 0 idle, 1 awaiting mode byte, 2 awaiting final ack
}

func (r *fakeRadio) Read(p []byte) (int, error) {
	r.cond.L.Lock()
	defer r.cond.L.Unlock()
	for r.rxbuf.Len() == 0 && !r.closed {
		r.cond.Wait()
	}
	if r.rxbuf.Len() == 0 {
		return 0, io.EOF
	}
	return r.rxbuf.Read(p)
}

func (r *fakeRadio) queue(p []byte) {
	r.rxbuf.Write(p)
	r.cond.Broadcast()
}

func (r *fakeRadio) Close() error {
	r.cond.L.Lock()
	defer r.cond.L.Unlock()
	r.closed = true
	r.cond.Broadcast()
	return nil
}

func (r *fakeRadio) Write(p []byte) (int, error) {
	r.cond.L.Lock()
	defer r.cond.L.Unlock()
	if r.closed {
		return 0, io.ErrClosedPipe
	}

	switch {
	case r.progState == 1 && len(p) == 1 && p[0] == programModeByte:
		r.queue(bytes.Repeat([]byte{0xFF}, 8))
		r.progState = 2

	case r.progState == 2 && len(p) == 1 && p[0] == respAck:
		r.queue([]byte{respAck})
		r.progState = 0

	case string(p) == probeModel:
		r.queue(r.cfg.modelReply)

	case string(p) == probeAuth:
		r.queue([]byte{respPassword, 0x00, 0x00})

	case string(p) == probeSystem:
		r.queue([]byte{respAck})

	case len(p) == 5 && p[0] == respInfo:
		id := p[4]
		payload, ok := r.cfg.frames[id]
		if ok {
			r.queue([]byte{respInfo, id, byte(len(payload))})
			r.queue(payload)
		}
		// An unknown frame id stays silent, like real hardware.

	case bytes.Equal(p, enterProgramCmd):
		r.queue([]byte{respAck})
		r.progState = 1

	case len(p) == 6 && p[0] == cmdRead:
		addr := uint32(p[1]) | uint32(p[2])<<8 | uint32(p[3])<<16
		length := int(p[4]) | int(p[5])<<8
		off := int(addr - r.cfg.base)
		if off < 0 || off+length > len(r.cfg.image) {
			return len(p), nil // out of range, no reply
		}
		r.cfg.mu.Lock()
		if length == 1 {
			r.cfg.tagReads++
		} else if length == BlockSize {
			r.cfg.blockReads++
		}
		r.cfg.mu.Unlock()
		header := []byte{cmdWrite, p[1], p[2], p[3], p[4], p[5]}
		r.queue(header)
		r.queue(r.cfg.image[off : off+length])

	case len(p) == 7+BlockSize && p[0] == cmdWrite:
		addr := uint32(p[1]) | uint32(p[2])<<8 | uint32(p[3])<<16
		off := int(addr - r.cfg.base)
		if off < 0 || off+BlockSize > len(r.cfg.image) {
			return len(p), nil
		}
		copy(r.cfg.image[off:off+BlockSize], p[6:6+BlockSize])
		r.cfg.mu.Lock()
		r.cfg.writes++
		r.cfg.mu.Unlock()
		r.queue([]byte{respAck})
	}
	return len(p), nil
}
