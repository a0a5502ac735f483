// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import "time"

// Stats accumulates transfer counters over a session for postmortem display.
type Stats struct {
	BlocksRead    int
	BlocksWritten int
	BytesRead     int64
	BytesWritten  int64

	HandshakeTime time.Duration
	DiscoverTime  time.Duration
	ReadTime      time.Duration
	WriteTime     time.Duration
}
