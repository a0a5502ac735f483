// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

// RawBlock is the byte-level provenance of a cached block, exported with the
// decoded records so debug tooling works from first-class data instead of a
// side channel.
type RawBlock struct {
	Tag     byte
	Kind    string
	Address uint32
	Data    []byte
}

// Result aggregates everything one read session produced: typed records, the
// raw blocks they came from, non-fatal warnings, and transfer statistics.
// Optional features that were absent or unreadable decode to empty slices
// plus a warning, never an error.
type Result struct {
	Info *DeviceInfo

	Channels  []Channel
	Zones     []Zone
	ScanLists []ScanList
	Contacts  []Contact
	Messages  []TextMessage
	RadioIDs  []RadioID
	RXGroups  []RXGroup
	CalParams []CalParam
	Settings  *RadioSettings

	DigitalEmergency []EmergencySystem
	AnalogEmergency  []EmergencySystem

	Raw      []RawBlock
	Warnings []string
	Stats    Stats
}
