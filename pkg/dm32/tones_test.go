// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"math"
	"testing"
)

func TestDecodeTone(t *testing.T) {
	tests := []struct {
		name string
		lo   byte
		hi   byte
		want Tone
	}{
		{"none", 0x00, 0x00, Tone{Kind: ToneNone}},
		{"ctcss 67.0", 67, 0, Tone{Kind: ToneCTCSS, Hz: 67.0}},
		{"ctcss 146.2", 146, 2, Tone{Kind: ToneCTCSS, Hz: 146.2}},
		{"ctcss 254.1", 254, 1, Tone{Kind: ToneCTCSS, Hz: 254.1}},
		{"dcs normal", 0x17, 0x80, Tone{Kind: ToneDCS, Code: 0x17, Polarity: DCSNormal}},
		{"dcs inverted", 0x17, 0x81, Tone{Kind: ToneDCS, Code: 0x17, Polarity: DCSInverted}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeTone(tt.lo, tt.hi)
			if got.Kind != tt.want.Kind || got.Code != tt.want.Code ||
				got.Polarity != tt.want.Polarity || math.Abs(got.Hz-tt.want.Hz) > 1e-9 {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestToneRoundTrip_CTCSS(t *testing.T) {
	// All tones represented as integer + one decimal digit.
	for whole := 60; whole <= 255; whole += 13 {
		for frac := 0; frac <= 9; frac++ {
			want := Tone{Kind: ToneCTCSS, Hz: float64(whole) + float64(frac)/10}
			lo, hi, err := EncodeTone(want)
			if err != nil {
				t.Fatalf("encode %.1f: %v", want.Hz, err)
			}
			got := DecodeTone(lo, hi)
			if got.Kind != ToneCTCSS || math.Abs(got.Hz-want.Hz) > 0.05 {
				t.Fatalf("round trip %.1f -> %02X %02X -> %+v", want.Hz, lo, hi, got)
			}
		}
	}
}

func TestToneRoundTrip_DCS(t *testing.T) {
	for code := uint16(1); code <= 0xFF; code += 7 {
		for _, pol := range []byte{DCSNormal, DCSInverted} {
			want := Tone{Kind: ToneDCS, Code: code, Polarity: pol}
			lo, hi, err := EncodeTone(want)
			if err != nil {
				t.Fatalf("encode D%03o%c: %v", code, pol, err)
			}
			if hi&0x80 == 0 {
				t.Fatalf("DCS encoding must set bit 7 of the high byte, got %02X", hi)
			}
			got := DecodeTone(lo, hi)
			if got != want {
				t.Fatalf("round trip %+v -> %+v", want, got)
			}
		}
	}
}

func TestEncodeTone_Invalid(t *testing.T) {
	if _, _, err := EncodeTone(Tone{Kind: ToneCTCSS, Hz: 0.4}); err == nil {
		t.Error("expected error for sub-1 Hz CTCSS tone")
	}
	if _, _, err := EncodeTone(Tone{Kind: ToneDCS, Code: 0x1FF}); err == nil {
		t.Error("expected error for DCS code beyond one byte")
	}
}
