// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"encoding/binary"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DeviceInfo holds the identity reported by the radio during the handshake.
// Every field except the memory range is best-effort: an info frame that does
// not answer leaves its field empty.
type DeviceInfo struct {
	Model     string
	Firmware  string
	BuildDate string
	Serial    string

	// ConfigStart/ConfigEnd delimit the configuration memory scanned by
	// discovery. Reported by info frame 4; required.
	ConfigStart uint32
	ConfigEnd   uint32

	// BandLimits is the raw frame 5 payload, kept verbatim. Bands decodes
	// it when it parses as BCD bound pairs.
	BandLimits []byte

	// Frames keeps every raw info-frame payload by id for debug export.
	Frames map[byte][]byte
}

// HasMemoryRange reports whether the radio described its configuration
// memory. Discovery cannot run without it.
func (d *DeviceInfo) HasMemoryRange() bool {
	return d.ConfigEnd > d.ConfigStart
}

// Bands decodes the band-limit payload into MHz ranges: consecutive low/high
// bound pairs in the same reversed-BCD form the channel records use. A radio
// or firmware whose payload does not parse as that yields no bands, and
// callers skip band checking.
func (d *DeviceInfo) Bands() [][2]float64 {
	raw := d.BandLimits
	if len(raw) == 0 || len(raw)%8 != 0 {
		return nil
	}
	var bands [][2]float64
	for off := 0; off < len(raw); off += 8 {
		lo, err := DecodeBCDFrequency(raw[off : off+4])
		if err != nil {
			return nil
		}
		hi, err := DecodeBCDFrequency(raw[off+4 : off+8])
		if err != nil {
			return nil
		}
		if lo <= 0 || hi <= lo {
			return nil
		}
		bands = append(bands, [2]float64{lo, hi})
	}
	return bands
}

// runHandshake drives the fixed connect sequence: model probe, auth probe,
// system-info probe, info frames, enter programming mode. Each step has its
// own timeout and exact expected reply; any deviation aborts the attempt.
func runHandshake(t *Transport, log *zap.SugaredLogger) (*DeviceInfo, error) {
	// Step 1: model probe. One ACK byte, then a NUL-padded model string.
	resp, err := t.Exchange("model probe", []byte(probeModel), 8, defaultHandshakeTimeout)
	if err != nil {
		return nil, err
	}
	if resp[0] != respAck {
		return nil, fmt.Errorf("model probe answered %#02x: %w", resp[0], ErrDeviceNotFound)
	}
	model := strings.TrimRight(string(resp[1:8]), "\x00")
	if !modelSupported(model) {
		return nil, fmt.Errorf("model %q: %w", model, ErrUnsupportedModel)
	}
	log.Infof("found %s", model)

	// Step 2: auth probe.
	resp, err = t.Exchange("auth probe", []byte(probeAuth), 3, defaultHandshakeTimeout)
	if err != nil {
		return nil, err
	}
	if resp[0] != respPassword {
		return nil, fmt.Errorf("auth probe answered %#02x: %w", resp[0], ErrHandshakeFailed)
	}

	// Step 3: system-info probe.
	resp, err = t.Exchange("system probe", []byte(probeSystem), 1, defaultHandshakeTimeout)
	if err != nil {
		return nil, err
	}
	if resp[0] != respAck {
		return nil, fmt.Errorf("system probe answered %#02x: %w", resp[0], ErrHandshakeFailed)
	}

	// Step 4: info frames. A frame that fails is logged and skipped;
	// partial device info is acceptable. The memory range frame is the
	// one exception, checked below.
	info := &DeviceInfo{Model: model, Frames: make(map[byte][]byte)}
	for _, id := range infoFrameIDs {
		payload, err := queryInfoFrame(t, id)
		if err != nil {
			log.Warnf("info frame %d unanswered: %v", id, err)
			continue
		}
		info.Frames[id] = payload
		switch id {
		case infoFirmware:
			info.Firmware = strings.TrimRight(string(payload), "\x00")
		case infoBuildDate:
			info.BuildDate = strings.TrimRight(string(payload), "\x00")
		case infoSerial:
			info.Serial = strings.TrimRight(string(payload), "\x00")
		case infoMemRange:
			if len(payload) >= 8 {
				info.ConfigStart = binary.LittleEndian.Uint32(payload[0:4])
				info.ConfigEnd = binary.LittleEndian.Uint32(payload[4:8])
			}
		case infoBandLimit:
			info.BandLimits = payload
		}
	}
	if !info.HasMemoryRange() {
		return nil, ErrMissingMemoryRange
	}

	// Step 5: enter programming mode.
	if err := enterProgramMode(t); err != nil {
		return nil, err
	}
	log.Debugf("programming mode entered, config memory %#x..%#x", info.ConfigStart, info.ConfigEnd)
	return info, nil
}

func modelSupported(model string) bool {
	for _, m := range supportedModels {
		if strings.Contains(model, m) {
			return true
		}
	}
	return false
}

// queryInfoFrame requests one V-frame: [0x56, 0,0,0, id]. The reply is a
// 3-byte header [0x56, id, len] followed by len payload bytes.
func queryInfoFrame(t *Transport, id byte) ([]byte, error) {
	op := fmt.Sprintf("info frame %d", id)
	header, err := t.Exchange(op, []byte{respInfo, 0x00, 0x00, 0x00, id}, 3, defaultHandshakeTimeout)
	if err != nil {
		return nil, err
	}
	if header[0] != respInfo || header[1] != id {
		return nil, fmt.Errorf("dm32: %s: bad header % X", op, header)
	}
	length := int(header[2])
	if length == 0 {
		return []byte{}, nil
	}
	return t.ReadExact(op+" payload", length, defaultHandshakeTimeout)
}

// enterProgramMode runs the final handshake exchange: PROGRAM command, mode
// byte, 8x 0xFF sync pattern, closing ACK.
func enterProgramMode(t *Transport) error {
	resp, err := t.Exchange("program command", enterProgramCmd, 1, defaultHandshakeTimeout)
	if err != nil {
		return err
	}
	if resp[0] != respAck {
		return fmt.Errorf("program command answered %#02x: %w", resp[0], ErrHandshakeFailed)
	}

	resp, err = t.Exchange("program mode", []byte{programModeByte}, 8, defaultHandshakeTimeout)
	if err != nil {
		return err
	}
	for _, b := range resp {
		if b != 0xFF {
			return fmt.Errorf("program mode sync % X: %w", resp, ErrHandshakeFailed)
		}
	}

	resp, err = t.Exchange("program ack", []byte{respAck}, 1, defaultHandshakeTimeout)
	if err != nil {
		return err
	}
	if resp[0] != respAck {
		return fmt.Errorf("program ack answered %#02x: %w", resp[0], ErrHandshakeFailed)
	}
	return nil
}
