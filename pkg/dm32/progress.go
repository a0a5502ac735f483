// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

// Phase names the long-running session stage a progress event belongs to.
type Phase string

const (
	PhaseConnect  Phase = "connect"
	PhaseDiscover Phase = "discover"
	PhaseRead     Phase = "read"
	PhaseDecode   Phase = "decode"
	PhaseWrite    Phase = "write"
)

// ProgressEvent is one structured progress notification. Percent is
// monotonically increasing within a phase. Events are delivered on a single
// channel; any remapping of percentages across phases is the consumer's job.
type ProgressEvent struct {
	Phase   Phase
	Percent int
	Message string
}

// emit delivers an event without ever blocking: the engine must not depend
// on consumer timing, so a full channel drops the event.
func (s *Session) emit(phase Phase, percent int, message string) {
	ev := ProgressEvent{Phase: phase, Percent: percent, Message: message}
	select {
	case s.progress <- ev:
	default:
	}
}
