// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"fmt"
	"math"
)

// ToneKind selects the squelch tone variant carried in a 2-byte tone field.
type ToneKind int

const (
	ToneNone ToneKind = iota
	ToneCTCSS
	ToneDCS
)

// DCS polarity values.
const (
	DCSNormal   byte = 'N'
	DCSInverted byte = 'P'
)

// Tone is a CTCSS tone, a DCS code, or nothing. The wire form is two bytes:
// DCS is flagged by bit 7 of the high byte, with the code in the low byte and
// the polarity in bit 0 of the high byte. Otherwise both bytes zero mean no
// tone, and a CTCSS tone stores the integer hertz in the low byte and the
// single fractional digit in the high byte.
type Tone struct {
	Kind     ToneKind
	Hz       float64 // CTCSS only, one decimal digit of precision
	Code     uint16  // DCS only
	Polarity byte    // DCS only, DCSNormal or DCSInverted
}

func (t Tone) String() string {
	switch t.Kind {
	case ToneCTCSS:
		return fmt.Sprintf("%.1f Hz", t.Hz)
	case ToneDCS:
		return fmt.Sprintf("D%03o%c", t.Code, t.Polarity)
	default:
		return "off"
	}
}

// DecodeTone decodes a 2-byte tone field.
func DecodeTone(lo, hi byte) Tone {
	if hi&0x80 != 0 {
		t := Tone{Kind: ToneDCS, Code: uint16(lo), Polarity: DCSNormal}
		if hi&0x01 != 0 {
			t.Polarity = DCSInverted
		}
		return t
	}
	if lo == 0 && hi == 0 {
		return Tone{Kind: ToneNone}
	}
	return Tone{Kind: ToneCTCSS, Hz: float64(lo) + float64(hi)/10.0}
}

// EncodeTone encodes a tone into its 2-byte wire form.
func EncodeTone(t Tone) (lo, hi byte, err error) {
	switch t.Kind {
	case ToneNone:
		return 0, 0, nil
	case ToneCTCSS:
		scaled := int(math.Round(t.Hz * 10))
		whole := scaled / 10
		frac := scaled % 10
		if whole < 1 || whole > 255 {
			return 0, 0, fmt.Errorf("dm32: CTCSS tone %.1f Hz out of range", t.Hz)
		}
		return byte(whole), byte(frac), nil
	case ToneDCS:
		if t.Code > 0xFF {
			return 0, 0, fmt.Errorf("dm32: DCS code %d out of range", t.Code)
		}
		hi = 0x80
		if t.Polarity == DCSInverted {
			hi |= 0x01
		}
		return byte(t.Code), hi, nil
	default:
		return 0, 0, fmt.Errorf("dm32: unknown tone kind %d", t.Kind)
	}
}
