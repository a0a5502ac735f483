// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

// Package codeplug holds the device-independent form of a radio's
// configuration: every decoded record set plus the raw blocks they came from,
// serializable to a snapshot file. A snapshot taken with read is the input to
// write and dump, so a programming cycle never depends on the radio staying
// connected in between.
package codeplug

import (
	"fmt"
	"time"

	"github.com/dm32dev/dm32prog/pkg/dm32"
)

// Codeplug is one complete configuration snapshot.
type Codeplug struct {
	SavedAt time.Time `cbor:"saved_at"`

	Model     string `cbor:"model"`
	Firmware  string `cbor:"firmware"`
	BuildDate string `cbor:"build_date"`
	Serial    string `cbor:"serial"`

	ConfigStart uint32 `cbor:"config_start"`
	ConfigEnd   uint32 `cbor:"config_end"`

	Channels  []dm32.Channel     `cbor:"channels"`
	Zones     []dm32.Zone        `cbor:"zones"`
	ScanLists []dm32.ScanList    `cbor:"scan_lists"`
	Contacts  []dm32.Contact     `cbor:"contacts"`
	Messages  []dm32.TextMessage `cbor:"messages"`
	RadioIDs  []dm32.RadioID     `cbor:"radio_ids"`
	RXGroups  []dm32.RXGroup     `cbor:"rx_groups"`
	CalParams []dm32.CalParam    `cbor:"cal_params"`

	Settings *dm32.RadioSettings `cbor:"settings,omitempty"`

	// Raw carries every cached block verbatim. Write sessions rebuild the
	// device from these, so a snapshot round-trips bytes the decoders do
	// not understand.
	Raw []dm32.RawBlock `cbor:"raw"`

	Warnings []string `cbor:"warnings,omitempty"`
}

// FromResult converts a finished read session into a snapshot-ready codeplug.
func FromResult(res *dm32.Result) *Codeplug {
	cp := &Codeplug{
		SavedAt:   time.Now(),
		Channels:  res.Channels,
		Zones:     res.Zones,
		ScanLists: res.ScanLists,
		Contacts:  res.Contacts,
		Messages:  res.Messages,
		RadioIDs:  res.RadioIDs,
		RXGroups:  res.RXGroups,
		CalParams: res.CalParams,
		Settings:  res.Settings,
		Raw:       res.Raw,
		Warnings:  res.Warnings,
	}
	if res.Info != nil {
		cp.Model = res.Info.Model
		cp.Firmware = res.Info.Firmware
		cp.BuildDate = res.Info.BuildDate
		cp.Serial = res.Info.Serial
		cp.ConfigStart = res.Info.ConfigStart
		cp.ConfigEnd = res.Info.ConfigEnd
	}
	return cp
}

// Summary returns a one-line description for CLI output.
func (cp *Codeplug) Summary() string {
	return fmt.Sprintf("%s (fw %s): %d channels, %d zones, %d scan lists, %d contacts",
		cp.Model, cp.Firmware, len(cp.Channels), len(cp.Zones), len(cp.ScanLists), len(cp.Contacts))
}

// RawBlockByTag returns the raw block carrying the given metadata tag.
func (cp *Codeplug) RawBlockByTag(tag byte) (dm32.RawBlock, bool) {
	for _, b := range cp.Raw {
		if b.Tag == tag {
			return b, true
		}
	}
	return dm32.RawBlock{}, false
}
