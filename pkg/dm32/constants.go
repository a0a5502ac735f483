// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

// Package dm32 implements the serial programming protocol of DM-32 series
// DMR transceivers.
//
// The package drives the full programming session: connect handshake, memory
// block discovery, a single bulk read into an in-memory cache, and bit-exact
// encoding/decoding of the records stored in configuration memory (channels,
// zones, scan lists, contacts, quick messages, radio IDs, calibration).
// The protocol is not documented by the vendor; every constant in this file
// was recovered by observing the factory CPS on the wire.
package dm32

import "time"

// Wire sentinels and command bytes.
const (
	cmdRead  = 0x52 // 'R', followed by 3-byte LE address and 2-byte LE length
	cmdWrite = 0x57 // 'W', same header; also the leading byte of read replies

	respAck      = 0x06 // positive acknowledge
	respPassword = 0x50 // leading byte of the PASSSTA reply
	respInfo     = 0x56 // leading byte of an info-frame reply
)

// Fixed probe commands sent during the handshake, in order.
const (
	probeModel  = "PSEARCH"
	probeAuth   = "PASSSTA"
	probeSystem = "SYSINFO"
)

// enterProgramCmd puts the radio into programming mode. The 0x0C byte is the
// total frame length including itself and the four 0xFF lead-in bytes.
var enterProgramCmd = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0C, 'P', 'R', 'O', 'G', 'R', 'A', 'M'}

// programModeByte follows the acknowledged PROGRAM command and selects the
// configuration memory bank.
const programModeByte = 0x02

// supportedModels are the substrings accepted in the PSEARCH model reply.
var supportedModels = []string{"DM32", "DM-32"}

// Info-frame ids queried after the probes. Frame order matters only for log
// readability; a frame that does not answer is skipped.
const (
	infoFirmware  = 0x01
	infoBuildDate = 0x02
	infoSerial    = 0x03
	infoMemRange  = 0x04 // payload: config start, end as two LE uint32 — required
	infoBandLimit = 0x05
)

var infoFrameIDs = []byte{infoFirmware, infoBuildDate, infoSerial, infoMemRange, infoBandLimit}

// Configuration memory geometry.
const (
	BlockSize      = 4096
	metadataOffset = BlockSize - 1 // every block tags its own kind in its last byte
)

// Block metadata tag ranges. The tag is the block's last byte; classification
// is a pure table lookup (see BlockKind).
const (
	tagChannelFirst = 0x10 // the first channel block carries the channel count header
	tagChannelLast  = 0x3F
	tagZoneFirst    = 0x40
	tagZoneLast     = 0x49
	tagScanFirst    = 0x4A
	tagScanLast     = 0x4D
	tagContactFirst = 0x50
	tagContactLast  = 0x6F
	tagRxGroup      = 0x70
	tagMessage      = 0x71
	tagCalibration  = 0x72
	tagVfoSettings  = 0x73
	tagDigitalEmg   = 0x74
	tagAnalogEmg    = 0x75
	tagEmpty        = 0xFF
)

// Channel storage geometry. The first channel block loses one record slot to
// the 4-byte count header (the rest of that slot is padding), so it holds 84
// records starting at offset 48; every later block holds 85 from offset 0.
const (
	ChannelRecordSize         = 48
	firstBlockChannelCapacity = 84
	channelBlockCapacity      = 85 // 0x55, also the divisor of the flag address transform
	channelNameLength         = 16

	MaxChannels = 4000
)

// Record geometry of the remaining kinds. Per-block capacity is always
// floor(BlockSize / recordSize).
const (
	ZoneRecordSize     = 145
	zoneNameLength     = 11
	zoneMaxChannels    = 64
	ScanListSlotSize   = 92 // nominal; slots are located heuristically, see scanlist.go
	scanListMaxEntries = 16
	ContactRecordSize  = 24
	MessageRecordSize  = 64
	RadioIDRecordSize  = 32
	RXGroupRecordSize  = 96
	rxGroupMaxMembers  = 32
	CalRecordSize      = 16
)

// Session timing. The radio is slow to turn blocks around; the inter-block
// delay keeps it from dropping bytes during the bulk read.
const (
	defaultHandshakeTimeout = 2 * time.Second
	defaultTagReadTimeout   = 2 * time.Second
	defaultBlockTimeout     = 5 * time.Second
	defaultInterBlockDelay  = 20 * time.Millisecond
)

// writeTagOrder is the fixed sequence of configuration block tags transmitted
// after the channel blocks during a write. The device expects the complete
// configuration set every time; unmodified blocks are re-sent from cache.
func writeTagOrder() []byte {
	tags := make([]byte, 0, 64)
	for t := tagZoneFirst; t <= tagZoneLast; t++ {
		tags = append(tags, byte(t))
	}
	for t := tagScanFirst; t <= tagScanLast; t++ {
		tags = append(tags, byte(t))
	}
	for t := tagContactFirst; t <= tagContactLast; t++ {
		tags = append(tags, byte(t))
	}
	tags = append(tags, tagRxGroup, tagMessage, tagCalibration, tagVfoSettings, tagDigitalEmg, tagAnalogEmg)
	return tags
}
