// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"fmt"
	"strings"
)

// hexDump renders up to max bytes of buf for trace logging, appending the
// elided length when truncated.
func hexDump(buf []byte, max int) string {
	var b strings.Builder
	n := len(buf)
	shown := n
	if max > 0 && shown > max {
		shown = max
	}
	for i := 0; i < shown; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", buf[i])
	}
	if shown < n {
		fmt.Fprintf(&b, " .. (%d bytes)", n)
	}
	return b.String()
}

// DumpBlock renders a whole block as a conventional 16-column hex dump with
// an ASCII gutter. Used by debug tooling on raw cached blocks.
func DumpBlock(addr uint32, data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&b, "%06X  ", addr+uint32(off))
		for i := off; i < off+16; i++ {
			if i < end {
				fmt.Fprintf(&b, "%02X ", data[i])
			} else {
				b.WriteString("   ")
			}
			if i == off+7 {
				b.WriteByte(' ')
			}
		}
		b.WriteByte(' ')
		for i := off; i < end; i++ {
			c := data[i]
			if c < 0x20 || c > 0x7E {
				c = '.'
			}
			b.WriteByte(c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
