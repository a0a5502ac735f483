// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import "fmt"

// ValidateChannel checks a channel's fields against the format's hard limits
// and, when the radio reported band limits, against those. Problems come back
// as warnings; writes proceed, matching the factory CPS which happily
// programs out-of-band channels.
func ValidateChannel(c Channel, info *DeviceInfo) []string {
	var warnings []string

	if c.Name == "" {
		warnings = append(warnings, "empty name")
	}
	if len(c.Name) > channelNameLength {
		warnings = append(warnings, fmt.Sprintf("name %q longer than %d characters, will be truncated", c.Name, channelNameLength))
	}
	if c.RxFreqMHz <= 0 || c.TxFreqMHz <= 0 {
		warnings = append(warnings, "zero or negative frequency")
	}
	if c.ColorCode > 15 {
		warnings = append(warnings, fmt.Sprintf("color code %d out of range 0-15", c.ColorCode))
	}
	if c.ScanListID > 15 {
		warnings = append(warnings, fmt.Sprintf("scan list id %d out of range 0-15", c.ScanListID))
	}
	if c.EncryptKey > 15 {
		warnings = append(warnings, fmt.Sprintf("encryption key %d out of range 0-15", c.EncryptKey))
	}
	if c.Timeslot > 2 {
		warnings = append(warnings, fmt.Sprintf("timeslot %d out of range", c.Timeslot))
	}
	if c.Mode > ModeMixed {
		warnings = append(warnings, fmt.Sprintf("unknown mode %d", uint8(c.Mode)))
	}
	if info != nil {
		if bands := info.Bands(); len(bands) > 0 {
			if c.RxFreqMHz > 0 && !withinBands(bands, c.RxFreqMHz) {
				warnings = append(warnings, fmt.Sprintf("rx frequency %.5f MHz outside the radio's bands", c.RxFreqMHz))
			}
			if c.TxFreqMHz > 0 && !withinBands(bands, c.TxFreqMHz) {
				warnings = append(warnings, fmt.Sprintf("tx frequency %.5f MHz outside the radio's bands", c.TxFreqMHz))
			}
		}
	}
	return warnings
}

func withinBands(bands [][2]float64, mhz float64) bool {
	for _, b := range bands {
		if mhz >= b[0] && mhz <= b[1] {
			return true
		}
	}
	return false
}

// ValidateZone checks a zone against its record limits.
func ValidateZone(z Zone, channelCount int) []string {
	var warnings []string
	if len(z.Name) > zoneNameLength {
		warnings = append(warnings, fmt.Sprintf("name %q longer than %d characters, will be truncated", z.Name, zoneNameLength))
	}
	if len(z.Channels) > zoneMaxChannels {
		warnings = append(warnings, fmt.Sprintf("%d members exceed the zone limit of %d", len(z.Channels), zoneMaxChannels))
	}
	for _, ch := range z.Channels {
		if int(ch) > channelCount {
			warnings = append(warnings, fmt.Sprintf("member %d beyond channel count %d", ch, channelCount))
		}
	}
	return warnings
}
