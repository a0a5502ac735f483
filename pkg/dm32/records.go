// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// recordBlank reports an unused record slot: all 0xFF (erased flash) or all
// 0x00 (zeroed by the factory CPS).
func recordBlank(rec []byte) bool {
	allFF, all00 := true, true
	for _, b := range rec {
		if b != 0xFF {
			allFF = false
		}
		if b != 0x00 {
			all00 = false
		}
		if !allFF && !all00 {
			return false
		}
	}
	return true
}

// ContactType distinguishes DMR call destinations.
type ContactType uint8

const (
	ContactGroup   ContactType = 0
	ContactPrivate ContactType = 1
	ContactAll     ContactType = 2
)

func (t ContactType) String() string {
	switch t {
	case ContactGroup:
		return "group"
	case ContactPrivate:
		return "private"
	case ContactAll:
		return "all"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Contact is one 24-byte DMR contact record.
type Contact struct {
	Name string
	Type ContactType
	ID   uint32 // DMR ID, 24-bit on air but stored as LE uint32

	Unknown21 [3]byte
}

// DecodeContact decodes a 24-byte contact record: name at 0 (16 bytes), call
// type at 16, DMR ID as LE uint32 at 17.
func DecodeContact(rec []byte) (Contact, error) {
	var c Contact
	if len(rec) != ContactRecordSize {
		return c, fmt.Errorf("dm32: contact record needs %d bytes, got %d", ContactRecordSize, len(rec))
	}
	c.Name = strings.TrimRight(string(rec[0:16]), "\x00")
	c.Type = ContactType(rec[16])
	c.ID = binary.LittleEndian.Uint32(rec[17:21])
	copy(c.Unknown21[:], rec[21:24])
	return c, nil
}

// EncodeContact encodes a contact into its 24-byte record.
func EncodeContact(c Contact) [ContactRecordSize]byte {
	var rec [ContactRecordSize]byte
	name := c.Name
	if len(name) > 16 {
		name = name[:16]
	}
	copy(rec[0:16], name)
	rec[16] = byte(c.Type)
	binary.LittleEndian.PutUint32(rec[17:21], c.ID)
	copy(rec[21:24], c.Unknown21[:])
	return rec
}

// TextMessage is one canned quick message, stored as a NUL-terminated string
// in a 64-byte slot.
type TextMessage struct {
	Text string
}

// RadioID is one programmed DMR identity: LE uint32 id at 0, name at 4.
type RadioID struct {
	ID   uint32
	Name string

	Unknown20 [12]byte
}

// DecodeRadioID decodes one 32-byte radio ID record.
func DecodeRadioID(rec []byte) (RadioID, error) {
	var r RadioID
	if len(rec) != RadioIDRecordSize {
		return r, fmt.Errorf("dm32: radio ID record needs %d bytes, got %d", RadioIDRecordSize, len(rec))
	}
	r.ID = binary.LittleEndian.Uint32(rec[0:4])
	r.Name = strings.TrimRight(string(rec[4:20]), "\x00")
	copy(r.Unknown20[:], rec[20:32])
	return r, nil
}

// EncodeRadioID encodes a radio ID into its 32-byte record.
func EncodeRadioID(r RadioID) [RadioIDRecordSize]byte {
	var rec [RadioIDRecordSize]byte
	binary.LittleEndian.PutUint32(rec[0:4], r.ID)
	name := r.Name
	if len(name) > 16 {
		name = name[:16]
	}
	copy(rec[4:20], name)
	copy(rec[20:32], r.Unknown20[:])
	return rec
}

// RXGroup is one receive group: a named list of contact indices.
type RXGroup struct {
	Name     string
	Contacts []uint16
}

// DecodeRXGroup decodes one 96-byte RX group record: name at 0 (16 bytes),
// member count at 16, LE uint16 contact indices from 17.
func DecodeRXGroup(rec []byte) (RXGroup, error) {
	var g RXGroup
	if len(rec) != RXGroupRecordSize {
		return g, fmt.Errorf("dm32: rx group record needs %d bytes, got %d", RXGroupRecordSize, len(rec))
	}
	g.Name = strings.TrimRight(string(rec[0:16]), "\x00")
	count := int(rec[16])
	if count > rxGroupMaxMembers {
		count = rxGroupMaxMembers
	}
	for i := 0; i < count; i++ {
		v := binary.LittleEndian.Uint16(rec[17+2*i : 19+2*i])
		if v == 0 {
			break
		}
		g.Contacts = append(g.Contacts, v)
	}
	return g, nil
}

// EncodeRXGroup encodes an RX group into its 96-byte record.
func EncodeRXGroup(g RXGroup) ([RXGroupRecordSize]byte, error) {
	var rec [RXGroupRecordSize]byte
	if len(g.Contacts) > rxGroupMaxMembers {
		return rec, fmt.Errorf("dm32: rx group %q has %d members, max %d", g.Name, len(g.Contacts), rxGroupMaxMembers)
	}
	name := g.Name
	if len(name) > 16 {
		name = name[:16]
	}
	copy(rec[0:16], name)
	rec[16] = byte(len(g.Contacts))
	for i, v := range g.Contacts {
		binary.LittleEndian.PutUint16(rec[17+2*i:19+2*i], v)
	}
	return rec, nil
}

// CalParam is one 16-byte calibration record. The value bytes are opaque and
// round-trip verbatim; editing them bricks radios.
type CalParam struct {
	Index uint8
	Band  uint8
	Raw   [14]byte
}

// DecodeCalParam decodes one calibration record.
func DecodeCalParam(rec []byte) (CalParam, error) {
	var p CalParam
	if len(rec) != CalRecordSize {
		return p, fmt.Errorf("dm32: calibration record needs %d bytes, got %d", CalRecordSize, len(rec))
	}
	p.Index = rec[0]
	p.Band = rec[1]
	copy(p.Raw[:], rec[2:16])
	return p, nil
}

// RadioSettings is the small global settings record at the head of the VFO
// settings block. Only the handful of verified fields are surfaced; the rest
// of the record is preserved raw.
type RadioSettings struct {
	MicGain  uint8
	SquelchA uint8
	SquelchB uint8
	VoxLevel uint8
	Raw      []byte // first 64 bytes of the block, verbatim
}

func decodeRadioSettings(data []byte) *RadioSettings {
	if len(data) < 64 {
		return nil
	}
	raw := make([]byte, 64)
	copy(raw, data[:64])
	return &RadioSettings{
		MicGain:  data[0],
		SquelchA: data[1],
		SquelchB: data[2],
		VoxLevel: data[3],
		Raw:      raw,
	}
}

// EmergencySystem is a digital or analog emergency system entry. The field
// mapping of these records has never been verified on hardware, so decoding
// deliberately returns no entries: empty results, never a guess and never a
// crash.
type EmergencySystem struct {
	Name string
	Raw  []byte
}

func decodeEmergencyBlocks(blocks []*CachedBlock) []EmergencySystem {
	// Layout unverified; see type comment.
	return nil
}

// decodeMessages walks a message block's 64-byte slots.
func decodeMessages(data []byte) []TextMessage {
	var out []TextMessage
	for off := 0; off+MessageRecordSize <= len(data); off += MessageRecordSize {
		rec := data[off : off+MessageRecordSize]
		if recordBlank(rec) {
			break
		}
		text := rec
		if i := bytes.IndexByte(rec, 0); i >= 0 {
			text = rec[:i]
		}
		if len(text) == 0 {
			continue
		}
		out = append(out, TextMessage{Text: string(text)})
	}
	return out
}
