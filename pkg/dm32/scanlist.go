// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"encoding/binary"
	"strings"
)

// Scan list slots are not stored at fixed offsets. The factory CPS writes the
// first 44 lists into the scan blocks with a layout that shifts with content;
// the on-disk form of lists 45 and up has never been established. This parser
// is therefore a best-effort two-stage scanner: first locate name candidates
// (printable, capitalized ASCII runs), then locate each list's channel array
// by looking for a run of plausible channel numbers. Do not assume a
// fixed-offset layout here.

const (
	scanNameMinLength   = 3
	scanNameMaxLength   = 16
	scanNameMergeWindow = 20 // candidates closer than this are duplicates
	scanRunProximity    = 20 // max numeric distance between run neighbors
)

// ScanList is a named, ordered list of up to 16 channel numbers. The offsets
// record where in the owning block the name and channel array were found;
// they are the only way to write a list back, since slots have no fixed
// position.
type ScanList struct {
	Name     string
	Channels []uint16

	BlockTag   byte
	NameOffset int
	ListOffset int
}

// scanNameCandidate is a stage-one hit.
type scanNameCandidate struct {
	name   string
	offset int
}

// findScanNames scans a block for printable, capitalized ASCII runs and
// de-duplicates near or substring-related hits.
func findScanNames(data []byte) []scanNameCandidate {
	var out []scanNameCandidate
	i := 0
	for i < len(data) {
		if !printableASCII(data[i]) || data[i] < 'A' || data[i] > 'Z' {
			i++
			continue
		}
		j := i
		for j < len(data) && j-i < scanNameMaxLength && printableASCII(data[j]) {
			j++
		}
		if j-i >= scanNameMinLength {
			name := strings.TrimRight(string(data[i:j]), " ")
			if len(name) >= scanNameMinLength && !duplicateScanName(out, name, i) {
				out = append(out, scanNameCandidate{name: name, offset: i})
			}
		}
		i = j + 1
	}
	return out
}

func printableASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

func duplicateScanName(found []scanNameCandidate, name string, offset int) bool {
	for _, f := range found {
		if offset-f.offset < scanNameMergeWindow {
			return true
		}
		if strings.Contains(f.name, name) || strings.Contains(name, f.name) {
			return true
		}
	}
	return false
}

// findChannelRun locates the channel array belonging to a name: the first
// position after the name where three consecutive 16-bit values are all
// plausible channel numbers lying numerically close together. The array
// never lies more than one nominal slot behind its name.
func findChannelRun(data []byte, from int) int {
	limit := from + ScanListSlotSize
	if limit > len(data)-6 {
		limit = len(data) - 6
	}
	for pos := from; pos <= limit; pos++ {
		a := binary.LittleEndian.Uint16(data[pos : pos+2])
		b := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		c := binary.LittleEndian.Uint16(data[pos+4 : pos+6])
		if plausibleChannel(a) && plausibleChannel(b) && plausibleChannel(c) &&
			near(a, b) && near(b, c) {
			return pos
		}
	}
	return -1
}

func plausibleChannel(v uint16) bool {
	return v >= 1 && v <= MaxChannels
}

func near(a, b uint16) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= scanRunProximity
}

// DecodeScanLists runs the two-stage scanner over one scan block.
func DecodeScanLists(data []byte, tag byte) []ScanList {
	var lists []ScanList
	for _, cand := range findScanNames(data) {
		start := findChannelRun(data, cand.offset+len(cand.name))
		if start < 0 {
			continue
		}
		sl := ScanList{
			Name:       cand.name,
			BlockTag:   tag,
			NameOffset: cand.offset,
			ListOffset: start,
		}
		for i := 0; i < scanListMaxEntries; i++ {
			pos := start + 2*i
			if pos+2 > len(data) {
				break
			}
			v := binary.LittleEndian.Uint16(data[pos : pos+2])
			if !plausibleChannel(v) {
				break
			}
			sl.Channels = append(sl.Channels, v)
		}
		if len(sl.Channels) > 0 {
			lists = append(lists, sl)
		}
	}
	return lists
}

// encodeScanListInto rewrites a previously located list in place. Only lists
// with recorded offsets can be written; a list without provenance has no
// known slot (see the layout note above) and must be skipped by the caller.
func encodeScanListInto(data []byte, sl ScanList) bool {
	if sl.ListOffset <= 0 || sl.NameOffset < 0 {
		return false
	}
	if sl.ListOffset+2*scanListMaxEntries > len(data) {
		return false
	}
	name := sl.Name
	if len(name) > scanNameMaxLength {
		name = name[:scanNameMaxLength]
	}
	if sl.NameOffset+len(name) > len(data) {
		return false
	}
	copy(data[sl.NameOffset:], name)
	channels := sl.Channels
	if len(channels) > scanListMaxEntries {
		channels = channels[:scanListMaxEntries]
	}
	for i := 0; i < scanListMaxEntries; i++ {
		var v uint16
		if i < len(channels) {
			v = channels[i]
		}
		binary.LittleEndian.PutUint16(data[sl.ListOffset+2*i:], v)
	}
	return true
}
