// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Zone is a named, ordered list of up to 64 channel numbers.
type Zone struct {
	Name     string
	Channels []uint16
}

// DecodeZone decodes one 145-byte zone record: name at 0 (11 bytes,
// NUL-terminated), channel count at 16, little-endian channel numbers from 17
// terminated early by a zero entry.
//
// Some firmware revisions under-report the count by one; when the entry list
// stops short of the count byte, one extra slot is probed before giving up.
func DecodeZone(rec []byte) (Zone, error) {
	var z Zone
	if len(rec) != ZoneRecordSize {
		return z, fmt.Errorf("dm32: zone record needs %d bytes, got %d", ZoneRecordSize, len(rec))
	}
	z.Name = strings.TrimRight(string(rec[0:zoneNameLength]), "\x00")

	count := int(rec[16])
	if count > zoneMaxChannels {
		count = zoneMaxChannels
	}
	for i := 0; i < count; i++ {
		v := binary.LittleEndian.Uint16(rec[17+2*i : 19+2*i])
		if v == 0 {
			// Off-by-one recovery: the next slot sometimes holds the
			// remaining channel.
			if i+1 < zoneMaxChannels {
				next := binary.LittleEndian.Uint16(rec[17+2*(i+1) : 19+2*(i+1)])
				if next != 0 && next <= MaxChannels {
					z.Channels = append(z.Channels, next)
				}
			}
			break
		}
		z.Channels = append(z.Channels, v)
	}
	return z, nil
}

// EncodeZone encodes a zone into its 145-byte record.
func EncodeZone(z Zone) ([ZoneRecordSize]byte, error) {
	var rec [ZoneRecordSize]byte
	if len(z.Channels) > zoneMaxChannels {
		return rec, fmt.Errorf("dm32: zone %q has %d channels, max %d", z.Name, len(z.Channels), zoneMaxChannels)
	}
	name := z.Name
	if len(name) > zoneNameLength {
		name = name[:zoneNameLength]
	}
	copy(rec[0:zoneNameLength], name)
	rec[16] = byte(len(z.Channels))
	for i, ch := range z.Channels {
		binary.LittleEndian.PutUint16(rec[17+2*i:19+2*i], ch)
	}
	return rec, nil
}

// decodeZoneBlocks walks the zone blocks record by record. Zones are laid out
// contiguously, so the first blank record (all 0xFF or all 0x00) ends the
// whole scan, not just the current block.
func decodeZoneBlocks(blocks []*CachedBlock, onBad func(error)) []Zone {
	var zones []Zone
	perBlock := BlockSize / ZoneRecordSize
	for _, b := range blocks {
		for i := 0; i < perBlock; i++ {
			rec := b.Data[i*ZoneRecordSize : (i+1)*ZoneRecordSize]
			if recordBlank(rec) {
				return zones
			}
			z, err := DecodeZone(rec)
			if err != nil {
				if onBad != nil {
					onBad(&RecordError{Kind: KindZone, Index: len(zones), Reason: err.Error()})
				}
				continue
			}
			zones = append(zones, z)
		}
	}
	return zones
}
