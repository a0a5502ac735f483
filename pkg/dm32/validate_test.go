// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"strings"
	"testing"
)

// vhfUhfInfo reports the usual 136-174 / 400-480 MHz split as reversed-BCD
// bound pairs.
func vhfUhfInfo() *DeviceInfo {
	return &DeviceInfo{BandLimits: []byte{
		0x00, 0x00, 0x60, 0x13, 0x00, 0x00, 0x40, 0x17,
		0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x48,
	}}
}

func TestDeviceInfoBands(t *testing.T) {
	bands := vhfUhfInfo().Bands()
	if len(bands) != 2 {
		t.Fatalf("expected 2 bands, got %v", bands)
	}
	if bands[0] != [2]float64{136, 174} || bands[1] != [2]float64{400, 480} {
		t.Errorf("unexpected bands %v", bands)
	}

	for name, raw := range map[string][]byte{
		"empty":         nil,
		"odd length":    {0x00, 0x00, 0x60, 0x13, 0x00, 0x00},
		"not BCD":       {0xAB, 0xCD, 0xEF, 0x00, 0x00, 0x00, 0x40, 0x17},
		"inverted pair": {0x00, 0x00, 0x40, 0x17, 0x00, 0x00, 0x60, 0x13},
	} {
		if got := (&DeviceInfo{BandLimits: raw}).Bands(); got != nil {
			t.Errorf("%s payload must yield no bands, got %v", name, got)
		}
	}
}

func TestValidateChannel(t *testing.T) {
	info := vhfUhfInfo()
	tests := []struct {
		name string
		c    Channel
		want string // substring of the expected warning, "" for a clean pass
	}{
		{"clean vhf", Channel{Name: "Calling", RxFreqMHz: 145.5, TxFreqMHz: 145.5}, ""},
		{"clean uhf", Channel{Name: "Hotspot", RxFreqMHz: 434.0, TxFreqMHz: 434.0, Mode: ModeDigital, ColorCode: 1}, ""},
		{"empty name", Channel{RxFreqMHz: 145.5, TxFreqMHz: 145.5}, "empty name"},
		{"zero frequency", Channel{Name: "X", RxFreqMHz: 145.5}, "frequency"},
		{"color code", Channel{Name: "X", RxFreqMHz: 145.5, TxFreqMHz: 145.5, ColorCode: 16}, "color code"},
		{"scan list id", Channel{Name: "X", RxFreqMHz: 145.5, TxFreqMHz: 145.5, ScanListID: 16}, "scan list"},
		{"encryption key", Channel{Name: "X", RxFreqMHz: 145.5, TxFreqMHz: 145.5, EncryptKey: 16}, "encryption key"},
		{"timeslot", Channel{Name: "X", RxFreqMHz: 145.5, TxFreqMHz: 145.5, Timeslot: 3}, "timeslot"},
		{"rx out of band", Channel{Name: "X", RxFreqMHz: 999.9, TxFreqMHz: 434.0}, "rx frequency"},
		{"tx out of band", Channel{Name: "X", RxFreqMHz: 434.0, TxFreqMHz: 300.0}, "tx frequency"},
		{"between bands", Channel{Name: "X", RxFreqMHz: 200.0, TxFreqMHz: 200.0}, "outside the radio's bands"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateChannel(tt.c, info)
			if tt.want == "" {
				if len(warnings) != 0 {
					t.Fatalf("expected no warnings, got %v", warnings)
				}
				return
			}
			if !containsWarning(warnings, tt.want) {
				t.Errorf("expected a warning containing %q, got %v", tt.want, warnings)
			}
		})
	}
}

func TestValidateChannel_NoBandLimits(t *testing.T) {
	c := Channel{Name: "X", RxFreqMHz: 999.9, TxFreqMHz: 999.9}
	for name, info := range map[string]*DeviceInfo{
		"nil info":     nil,
		"no payload":   {},
		"opaque bytes": {BandLimits: []byte{0x88, 0x01, 0x40, 0x05, 0x04, 0x10}},
	} {
		for _, w := range ValidateChannel(c, info) {
			if strings.Contains(w, "bands") {
				t.Errorf("%s: band warning without usable band limits: %q", name, w)
			}
		}
	}
}

func TestValidateZone(t *testing.T) {
	longName := strings.Repeat("Z", zoneNameLength+1)
	tooMany := make([]uint16, zoneMaxChannels+1)
	for i := range tooMany {
		tooMany[i] = uint16(i + 1)
	}
	tests := []struct {
		name         string
		z            Zone
		channelCount int
		want         string
	}{
		{"clean", Zone{Name: "Zone 1", Channels: []uint16{1, 2}}, 2, ""},
		{"long name", Zone{Name: longName, Channels: []uint16{1}}, 4000, "longer than"},
		{"too many members", Zone{Name: "Big", Channels: tooMany}, 4000, "zone limit"},
		{"member beyond count", Zone{Name: "Stale", Channels: []uint16{1, 9}}, 2, "beyond channel count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateZone(tt.z, tt.channelCount)
			if tt.want == "" {
				if len(warnings) != 0 {
					t.Fatalf("expected no warnings, got %v", warnings)
				}
				return
			}
			if !containsWarning(warnings, tt.want) {
				t.Errorf("expected a warning containing %q, got %v", tt.want, warnings)
			}
		})
	}
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
