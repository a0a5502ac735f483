// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"bytes"
	"fmt"
	"time"
)

// readMemory issues a memory read: [0x52, addr LE24, len LE16]. The device
// echoes a 6-byte header [0x57, addr LE24, len LE16] followed by the payload.
func readMemory(t *Transport, addr uint32, length int, timeout time.Duration) ([]byte, error) {
	cmd := []byte{
		cmdRead,
		byte(addr), byte(addr >> 8), byte(addr >> 16),
		byte(length), byte(length >> 8),
	}
	header, err := t.Exchange(fmt.Sprintf("read %#x", addr), cmd, 6, timeout)
	if err != nil {
		return nil, err
	}
	if header[0] != cmdWrite || !bytes.Equal(header[1:6], cmd[1:6]) {
		return nil, fmt.Errorf("dm32: read %#x: bad reply header % X: %w", addr, header, ErrHandshakeFailed)
	}
	return t.ReadExact(fmt.Sprintf("read %#x payload", addr), length, timeout)
}

// writeBlock transmits one full 4096-byte block:
// [0x57, addr LE24, len LE16, payload, tag], 4103 bytes total, and expects a
// single ACK. The tag byte trails the payload even though the payload's own
// last byte already carries it.
func writeBlock(t *Transport, addr uint32, data []byte, tag byte, timeout time.Duration) error {
	if len(data) != BlockSize {
		return fmt.Errorf("dm32: write %#x: payload must be %d bytes, got %d", addr, BlockSize, len(data))
	}
	frame := make([]byte, 0, 7+BlockSize)
	frame = append(frame,
		cmdWrite,
		byte(addr), byte(addr>>8), byte(addr>>16),
		0x00, 0x10, // 0x1000 little-endian
	)
	frame = append(frame, data...)
	frame = append(frame, tag)

	resp, err := t.Exchange(fmt.Sprintf("write %#x", addr), frame, 1, timeout)
	if err != nil {
		return err
	}
	if resp[0] != respAck {
		return fmt.Errorf("dm32: write %#x: got %#02x: %w", addr, resp[0], ErrWriteNotAcknowledged)
	}
	return nil
}
