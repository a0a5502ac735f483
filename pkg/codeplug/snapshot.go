// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package codeplug

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot files are a CBOR envelope: magic string, format version, payload.
// The version gates decoding; an unknown version is refused rather than
// half-decoded.
const (
	snapshotMagic   = "DM32CPG"
	snapshotVersion = 1
)

// ErrBadSnapshot is wrapped by Load for any file that is not a readable
// snapshot of a known version.
var ErrBadSnapshot = errors.New("codeplug: not a usable snapshot file")

type snapshotEnvelope struct {
	Magic   string    `cbor:"magic"`
	Version int       `cbor:"version"`
	Payload *Codeplug `cbor:"payload"`
}

// Save writes the codeplug to path. The write goes through a temp file in the
// same directory and a rename, so a crash never leaves a torn snapshot behind.
func Save(path string, cp *Codeplug) error {
	data, err := cbor.Marshal(snapshotEnvelope{
		Magic:   snapshotMagic,
		Version: snapshotVersion,
		Payload: cp,
	})
	if err != nil {
		return fmt.Errorf("codeplug: encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("codeplug: create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("codeplug: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("codeplug: write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("codeplug: write snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file back into a codeplug.
func Load(path string) (*Codeplug, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codeplug: read snapshot: %w", err)
	}

	var env snapshotEnvelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if env.Magic != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadSnapshot, env.Magic)
	}
	if env.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, env.Version)
	}
	if env.Payload == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrBadSnapshot)
	}
	return env.Payload, nil
}
