// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// BlockKind classifies a configuration memory block by its metadata tag.
type BlockKind int

const (
	KindUnknown BlockKind = iota
	KindChannel
	KindZone
	KindScanList
	KindContact
	KindRxGroup
	KindMessage
	KindCalibration
	KindVfoSettings
	KindDigitalEmergency
	KindAnalogEmergency
	KindEmpty
)

func (k BlockKind) String() string {
	switch k {
	case KindChannel:
		return "channel"
	case KindZone:
		return "zone"
	case KindScanList:
		return "scan list"
	case KindContact:
		return "contact"
	case KindRxGroup:
		return "rx group"
	case KindMessage:
		return "message"
	case KindCalibration:
		return "calibration"
	case KindVfoSettings:
		return "vfo settings"
	case KindDigitalEmergency:
		return "digital emergency"
	case KindAnalogEmergency:
		return "analog emergency"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// ClassifyTag maps a block metadata byte to its kind. Values outside every
// known range classify as KindUnknown, never an error.
func ClassifyTag(tag byte) BlockKind {
	switch {
	case tag >= tagChannelFirst && tag <= tagChannelLast:
		return KindChannel
	case tag >= tagZoneFirst && tag <= tagZoneLast:
		return KindZone
	case tag >= tagScanFirst && tag <= tagScanLast:
		return KindScanList
	case tag >= tagContactFirst && tag <= tagContactLast:
		return KindContact
	case tag == tagRxGroup:
		return KindRxGroup
	case tag == tagMessage:
		return KindMessage
	case tag == tagCalibration:
		return KindCalibration
	case tag == tagVfoSettings:
		return KindVfoSettings
	case tag == tagDigitalEmg:
		return KindDigitalEmergency
	case tag == tagAnalogEmg:
		return KindAnalogEmergency
	case tag == tagEmpty:
		return KindEmpty
	default:
		return KindUnknown
	}
}

// MemoryBlock is one inventory entry produced by discovery.
type MemoryBlock struct {
	Address uint32
	Tag     byte
	Kind    BlockKind
}

// BlockIndex is the typed inventory of the radio's configuration memory,
// produced by scanning one metadata byte per aligned block.
type BlockIndex struct {
	Blocks []MemoryBlock

	// ChannelCount is the 4-byte LE count read from the head of the first
	// channel block. It gates how many channel blocks are actually needed.
	ChannelCount int

	channelBlocks []MemoryBlock // ascending tag order, starting at tagChannelFirst
}

// discoverBlocks scans [start, end) in BlockSize steps, reading exactly one
// byte per block (the metadata tag at offset 4095). It never reads full
// blocks; the channel count header is the only extra read, 4 bytes from the
// first channel block.
func discoverBlocks(t *Transport, start, end uint32, onBlock func(done, total int)) (*BlockIndex, error) {
	if end <= start {
		return nil, fmt.Errorf("dm32: invalid configuration range %#x..%#x", start, end)
	}
	total := int((end - start) / BlockSize)
	idx := &BlockIndex{Blocks: make([]MemoryBlock, 0, total)}

	for i := 0; i < total; i++ {
		addr := start + uint32(i)*BlockSize
		tag, err := readMemory(t, addr+metadataOffset, 1, defaultTagReadTimeout)
		if err != nil {
			return nil, fmt.Errorf("scan block %#x: %w", addr, err)
		}
		b := MemoryBlock{Address: addr, Tag: tag[0], Kind: ClassifyTag(tag[0])}
		idx.Blocks = append(idx.Blocks, b)
		if b.Kind == KindChannel {
			idx.channelBlocks = append(idx.channelBlocks, b)
		}
		if onBlock != nil {
			onBlock(i+1, total)
		}
	}

	sort.Slice(idx.channelBlocks, func(a, b int) bool {
		return idx.channelBlocks[a].Tag < idx.channelBlocks[b].Tag
	})

	first, ok := idx.FirstChannelBlock()
	if !ok {
		// A blank radio still carries the header block; treat its absence
		// as zero channels rather than failing the whole session.
		idx.ChannelCount = 0
		return idx, nil
	}
	head, err := readMemory(t, first.Address, 4, defaultTagReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("read channel count: %w", err)
	}
	count := int(binary.LittleEndian.Uint32(head))
	if count > MaxChannels {
		count = MaxChannels
	}
	idx.ChannelCount = count
	return idx, nil
}

// FirstChannelBlock returns the block carrying the channel count header.
// Exactly one block holds the first-channel tag; channel blocks are numbered
// contiguously from it.
func (idx *BlockIndex) FirstChannelBlock() (MemoryBlock, bool) {
	for _, b := range idx.channelBlocks {
		if b.Tag == tagChannelFirst {
			return b, true
		}
	}
	return MemoryBlock{}, false
}

// ChannelBlocks returns the discovered channel blocks in ascending tag order.
func (idx *BlockIndex) ChannelBlocks() []MemoryBlock {
	return idx.channelBlocks
}

// NeededChannelBlocks derives from the channel count how many of the
// discovered channel blocks actually hold records. Over-reading is avoided by
// this capacity arithmetic, not by re-reading metadata.
func (idx *BlockIndex) NeededChannelBlocks() int {
	n := channelBlocksForCount(idx.ChannelCount)
	if n > len(idx.channelBlocks) {
		n = len(idx.channelBlocks)
	}
	return n
}

// channelBlocksForCount returns how many blocks hold count channels: 84 fit
// in the header block, 85 in every block after it.
func channelBlocksForCount(count int) int {
	if count <= 0 {
		return 1 // the header block is always needed
	}
	if count <= firstBlockChannelCapacity {
		return 1
	}
	rest := count - firstBlockChannelCapacity
	return 1 + (rest+channelBlockCapacity-1)/channelBlockCapacity
}
