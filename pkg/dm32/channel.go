// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"fmt"
	"strings"
)

// ChannelMode selects the channel's operating mode nibble.
type ChannelMode uint8

const (
	ModeAnalog  ChannelMode = 0
	ModeDigital ChannelMode = 1
	ModeMixed   ChannelMode = 2
)

func (m ChannelMode) String() string {
	switch m {
	case ModeAnalog:
		return "analog"
	case ModeDigital:
		return "digital"
	case ModeMixed:
		return "mixed"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Channel is one decoded 48-byte channel record plus the forbid-TX bit that
// lives outside the named fields (see channelFlagPosition). Record layout:
//
//	 0..15  name, NUL padded
//	16..19  RX frequency, reversed BCD
//	20..23  TX frequency, reversed BCD
//	24      overlay byte: bit 0 holds the forbid-TX flag of this record for
//	        channels 85 and up; preserved verbatim as Unknown24
//	25      mode b0-3, busy-lock b4-5, lone-worker b6
//	26      bandwidth b0-1, scan-add b2, scan list id b4-7
//	27      emergency system
//	28      power b0-3, APRS type b4-5
//	29      talkaround b0, reverse b1, compander b2, VOX b3
//	30      squelch level
//	31      PTT-ID
//	32      color code b0-3, timeslot b4-5, private-call confirm b6
//	33..34  RX tone
//	35..36  TX tone
//	37      RX squelch mode b0-2
//	38      step frequency b0-3, signaling b4-7
//	39      PTT-ID type b0-3, encryption key b4-7
//	40      overlay byte: bit 0 holds the forbid-TX flag of the next slot for
//	        channels below 85; preserved verbatim as Unknown40
//	41      contact id
//	42..47  unmapped tail
//
// Fields named UnknownNN are bit groups at byte NN whose meaning is not
// reverse-engineered; they round-trip verbatim and must not be reinterpreted.
type Channel struct {
	Index int // 1-based channel number
	Name  string

	RxFreqMHz float64
	TxFreqMHz float64

	Mode       ChannelMode
	BusyLock   uint8 // 2 bits
	LoneWorker bool

	Bandwidth  uint8 // 0 = 12.5 kHz, 1 = 25 kHz
	ScanAdd    bool
	ScanListID uint8 // 0..15

	Emergency uint8

	Power    uint8 // 0 = low .. 3 = turbo
	APRSType uint8 // 2 bits

	Talkaround bool
	Reverse    bool
	Compander  bool
	VOX        bool

	SquelchLevel uint8
	PTTID        uint8

	ColorCode      uint8 // 0..15
	Timeslot       uint8 // 2 bits
	ConfirmPrivate bool

	RxTone Tone
	TxTone Tone

	RxSquelchMode uint8 // 3 bits
	StepFreq      uint8
	Signaling     uint8
	PTTIDType     uint8
	EncryptKey    uint8 // 0..15

	ContactID uint8

	// ForbidTX is stored out-of-band, in the overlay byte addressed by
	// channelFlagPosition. It must travel with the record on read and
	// write or the two silently desynchronize.
	ForbidTX bool

	Unknown24 uint8   // overlay byte 24, verbatim
	Unknown25 bool    // byte 25 bit 7
	Unknown26 bool    // byte 26 bit 3
	Unknown28 uint8   // byte 28 bits 6-7
	Unknown29 uint8   // byte 29 bits 4-7
	Unknown32 bool    // byte 32 bit 7
	Unknown37 uint8   // byte 37 bits 3-7
	Unknown40 uint8   // overlay byte 40, verbatim
	Unknown42 [6]byte // bytes 42-47
}

// DecodeChannel decodes one 48-byte channel record. The forbid-TX bit is not
// part of the named fields; the caller attaches it separately.
func DecodeChannel(rec []byte) (Channel, error) {
	var c Channel
	if len(rec) != ChannelRecordSize {
		return c, fmt.Errorf("dm32: channel record needs %d bytes, got %d", ChannelRecordSize, len(rec))
	}

	c.Name = strings.TrimRight(string(rec[0:channelNameLength]), "\x00")

	var err error
	if c.RxFreqMHz, err = DecodeBCDFrequency(rec[16:20]); err != nil {
		return c, fmt.Errorf("rx frequency: %w", err)
	}
	if c.TxFreqMHz, err = DecodeBCDFrequency(rec[20:24]); err != nil {
		return c, fmt.Errorf("tx frequency: %w", err)
	}

	c.Unknown24 = rec[24]

	c.Mode = ChannelMode(rec[25] & 0x0F)
	c.BusyLock = (rec[25] >> 4) & 0x03
	c.LoneWorker = rec[25]&0x40 != 0
	c.Unknown25 = rec[25]&0x80 != 0

	c.Bandwidth = rec[26] & 0x03
	c.ScanAdd = rec[26]&0x04 != 0
	c.Unknown26 = rec[26]&0x08 != 0
	c.ScanListID = rec[26] >> 4

	c.Emergency = rec[27]

	c.Power = rec[28] & 0x0F
	c.APRSType = (rec[28] >> 4) & 0x03
	c.Unknown28 = rec[28] >> 6

	c.Talkaround = rec[29]&0x01 != 0
	c.Reverse = rec[29]&0x02 != 0
	c.Compander = rec[29]&0x04 != 0
	c.VOX = rec[29]&0x08 != 0
	c.Unknown29 = rec[29] >> 4

	c.SquelchLevel = rec[30]
	c.PTTID = rec[31]

	c.ColorCode = rec[32] & 0x0F
	c.Timeslot = (rec[32] >> 4) & 0x03
	c.ConfirmPrivate = rec[32]&0x40 != 0
	c.Unknown32 = rec[32]&0x80 != 0

	c.RxTone = DecodeTone(rec[33], rec[34])
	c.TxTone = DecodeTone(rec[35], rec[36])

	c.RxSquelchMode = rec[37] & 0x07
	c.Unknown37 = rec[37] >> 3

	c.StepFreq = rec[38] & 0x0F
	c.Signaling = rec[38] >> 4

	c.PTTIDType = rec[39] & 0x0F
	c.EncryptKey = rec[39] >> 4

	c.Unknown40 = rec[40]
	c.ContactID = rec[41]
	copy(c.Unknown42[:], rec[42:48])

	return c, nil
}

// EncodeChannel is the exact inverse of DecodeChannel.
func EncodeChannel(c Channel) ([ChannelRecordSize]byte, error) {
	var rec [ChannelRecordSize]byte

	name := c.Name
	if len(name) > channelNameLength {
		name = name[:channelNameLength]
	}
	copy(rec[0:channelNameLength], name)

	rx, err := EncodeBCDFrequency(c.RxFreqMHz)
	if err != nil {
		return rec, fmt.Errorf("rx frequency: %w", err)
	}
	tx, err := EncodeBCDFrequency(c.TxFreqMHz)
	if err != nil {
		return rec, fmt.Errorf("tx frequency: %w", err)
	}
	copy(rec[16:20], rx[:])
	copy(rec[20:24], tx[:])

	rec[24] = c.Unknown24

	rec[25] = byte(c.Mode)&0x0F | (c.BusyLock&0x03)<<4
	if c.LoneWorker {
		rec[25] |= 0x40
	}
	if c.Unknown25 {
		rec[25] |= 0x80
	}

	rec[26] = c.Bandwidth & 0x03
	if c.ScanAdd {
		rec[26] |= 0x04
	}
	if c.Unknown26 {
		rec[26] |= 0x08
	}
	rec[26] |= c.ScanListID << 4

	rec[27] = c.Emergency
	rec[28] = c.Power&0x0F | (c.APRSType&0x03)<<4 | c.Unknown28<<6

	if c.Talkaround {
		rec[29] |= 0x01
	}
	if c.Reverse {
		rec[29] |= 0x02
	}
	if c.Compander {
		rec[29] |= 0x04
	}
	if c.VOX {
		rec[29] |= 0x08
	}
	rec[29] |= c.Unknown29 << 4

	rec[30] = c.SquelchLevel
	rec[31] = c.PTTID

	rec[32] = c.ColorCode&0x0F | (c.Timeslot&0x03)<<4
	if c.ConfirmPrivate {
		rec[32] |= 0x40
	}
	if c.Unknown32 {
		rec[32] |= 0x80
	}

	if rec[33], rec[34], err = EncodeTone(c.RxTone); err != nil {
		return rec, fmt.Errorf("rx tone: %w", err)
	}
	if rec[35], rec[36], err = EncodeTone(c.TxTone); err != nil {
		return rec, fmt.Errorf("tx tone: %w", err)
	}

	rec[37] = c.RxSquelchMode&0x07 | c.Unknown37<<3
	rec[38] = c.StepFreq&0x0F | c.Signaling<<4
	rec[39] = c.PTTIDType&0x0F | c.EncryptKey<<4

	rec[40] = c.Unknown40
	rec[41] = c.ContactID
	copy(rec[42:48], c.Unknown42[:])

	return rec, nil
}

// channelRecordPosition maps a 1-based channel number to (block ordinal,
// in-block byte offset) of its 48-byte record. The first block starts its
// records at offset 48, behind the count header; later blocks start at 0.
func channelRecordPosition(n int) (block, offset int) {
	if n <= firstBlockChannelCapacity {
		return 0, n * ChannelRecordSize
	}
	m := n - firstBlockChannelCapacity - 1
	return 1 + m/channelBlockCapacity, (m % channelBlockCapacity) * ChannelRecordSize
}

// channelFlagPosition maps a 1-based channel number to the byte holding its
// forbid-TX bit (bit 0). Channels below the block threshold keep the flag
// eight bytes before their own record, which is the reserved overlay byte 40
// of the preceding slot. From channel 85 up the factory firmware switches to
// (n mod 0x55)*0x30 + 0x18 + (n div 0x55)*0x1000, landing on the reserved
// overlay byte 24 of the record itself. The result is bound-checked; ok=false
// means the caller logs a fallback instead of failing the batch.
func channelFlagPosition(n int) (block, offset int, ok bool) {
	if n < channelBlockCapacity {
		_, rec := channelRecordPosition(n)
		offset = rec - 8
		block = 0
	} else {
		block = n / channelBlockCapacity
		offset = (n%channelBlockCapacity)*ChannelRecordSize + 0x18
	}
	if offset < 0 || offset >= metadataOffset {
		return 0, 0, false
	}
	return block, offset, true
}
