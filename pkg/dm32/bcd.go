// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"fmt"
	"math"
)

// Frequencies are stored as four BCD bytes in reversed byte order: reading
// the bytes back-to-front yields eight decimal digits, which divided by
// 100000 give MHz with five fractional digits. 145.5000 MHz is stored as
// 00 00 55 14.

// DecodeBCDFrequency decodes a 4-byte reversed-BCD frequency into MHz.
func DecodeBCDFrequency(b []byte) (float64, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("dm32: BCD frequency needs 4 bytes, got %d", len(b))
	}
	value := 0
	for i := 3; i >= 0; i-- {
		hi := int(b[i] >> 4)
		lo := int(b[i] & 0x0F)
		if hi > 9 || lo > 9 {
			return 0, fmt.Errorf("dm32: invalid BCD digit in %02X", b[i])
		}
		value = value*100 + hi*10 + lo
	}
	return float64(value) / 100000.0, nil
}

// EncodeBCDFrequency encodes MHz into the 4-byte reversed-BCD form. The round
// trip is exact to 0.0001 MHz for any representable input.
func EncodeBCDFrequency(mhz float64) ([4]byte, error) {
	var out [4]byte
	if mhz < 0 {
		return out, fmt.Errorf("dm32: negative frequency %f", mhz)
	}
	value := int(math.Round(mhz * 100000.0))
	if value > 99999999 {
		return out, fmt.Errorf("dm32: frequency %f MHz not representable", mhz)
	}
	for i := 0; i < 4; i++ {
		lo := value % 10
		value /= 10
		hi := value % 10
		value /= 10
		out[i] = byte(hi<<4 | lo)
	}
	return out, nil
}
