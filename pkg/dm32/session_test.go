// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
)

const testBase = 0x100000

// testImage builds a 4-block configuration image: a channel block with two
// channels, a zone block with one zone, a message block with one message, and
// an empty block.
func testImage(t *testing.T) []byte {
	t.Helper()
	image := make([]byte, 4*BlockSize)
	for i := range image {
		image[i] = 0xFF
	}

	// Channel block: count header, zeroed header slot (it carries the flag
	// bytes of the first channels), two records, tag.
	cb := image[0:BlockSize]
	binary.LittleEndian.PutUint32(cb[0:4], 2)
	for i := 4; i < ChannelRecordSize; i++ {
		cb[i] = 0
	}
	channels := []Channel{
		{Name: "Calling", RxFreqMHz: 145.5, TxFreqMHz: 145.5, Mode: ModeAnalog, SquelchLevel: 3},
		{Name: "Simplex", RxFreqMHz: 438.8, TxFreqMHz: 438.8, Mode: ModeDigital, ColorCode: 1, Timeslot: 1},
	}
	for i, c := range channels {
		rec, err := EncodeChannel(c)
		if err != nil {
			t.Fatalf("encode channel: %v", err)
		}
		copy(cb[(i+1)*ChannelRecordSize:], rec[:])
	}
	cb[40] |= 0x01 // forbid TX on channel 1
	cb[metadataOffset] = tagChannelFirst

	// Zone block.
	zb := image[BlockSize : 2*BlockSize]
	zrec, err := EncodeZone(Zone{Name: "Zone 1", Channels: []uint16{1, 2}})
	if err != nil {
		t.Fatalf("encode zone: %v", err)
	}
	copy(zb, zrec[:])
	zb[metadataOffset] = tagZoneFirst

	// Message block.
	mb := image[2*BlockSize : 3*BlockSize]
	copy(mb, "Calling in 5\x00")
	for i := 13; i < MessageRecordSize; i++ {
		mb[i] = 0
	}
	mb[metadataOffset] = tagMessage

	// Block 3 stays empty (all 0xFF, tag 0xFF).
	return image
}

func TestSessionReadAll(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	s := NewSession(cfg.open, WithInterBlockDelay(0))

	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	res, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}

	if res.Info == nil || res.Info.Model != "DM-32" {
		t.Fatalf("unexpected device info %+v", res.Info)
	}
	if res.Info.Firmware != "V2.03.05" || res.Info.Serial != "2411D00123" {
		t.Errorf("info frames not captured: %+v", res.Info)
	}

	if len(res.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(res.Channels))
	}
	if res.Channels[0].Name != "Calling" || !res.Channels[0].ForbidTX {
		t.Errorf("channel 1 wrong: %+v", res.Channels[0])
	}
	if res.Channels[1].Name != "Simplex" || res.Channels[1].ForbidTX {
		t.Errorf("channel 2 wrong: %+v", res.Channels[1])
	}
	if res.Channels[0].Index != 1 || res.Channels[1].Index != 2 {
		t.Errorf("channel numbering wrong: %d, %d", res.Channels[0].Index, res.Channels[1].Index)
	}

	if len(res.Zones) != 1 || res.Zones[0].Name != "Zone 1" {
		t.Errorf("unexpected zones %+v", res.Zones)
	}
	if len(res.Messages) != 1 || res.Messages[0].Text != "Calling in 5" {
		t.Errorf("unexpected messages %+v", res.Messages)
	}

	// The empty block must never be fetched: one tag read per block, one
	// block read per populated block.
	if cfg.tagReads != 4 {
		t.Errorf("expected 4 tag reads, got %d", cfg.tagReads)
	}
	if cfg.blockReads != 3 {
		t.Errorf("expected 3 block reads, got %d", cfg.blockReads)
	}
	if len(res.Raw) != 3 {
		t.Errorf("expected 3 raw blocks, got %d", len(res.Raw))
	}
	if res.Stats.BlocksRead != 3 {
		t.Errorf("stats disagree: %+v", res.Stats)
	}

	// The bulk read hands the radio back once the cache is populated.
	if s.IsConnected() {
		t.Error("session must disconnect after the bulk read")
	}
	if _, err := s.ReadChannels(); err != nil {
		t.Errorf("cache-only read after disconnect: %v", err)
	}
}

func TestSessionConnect_DeviceNotFound(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	cfg.modelReply = []byte{0x15, 0, 0, 0, 0, 0, 0, 0}
	s := NewSession(cfg.open)

	err := s.Connect(context.Background())
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	if s.IsConnected() {
		t.Error("failed connect must not leave the session connected")
	}
}

func TestSessionConnect_UnsupportedModel(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	cfg.modelReply = []byte{respAck, 'X', '9', '9', 0, 0, 0, 0}
	s := NewSession(cfg.open)

	if err := s.Connect(context.Background()); !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}

func TestSessionConnect_MissingMemoryRange(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	cfg.frames[infoMemRange] = []byte{}
	s := NewSession(cfg.open)

	if err := s.Connect(context.Background()); !errors.Is(err, ErrMissingMemoryRange) {
		t.Fatalf("expected ErrMissingMemoryRange, got %v", err)
	}
}

func TestSessionConnect_Twice(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	s := NewSession(cfg.open)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect()
	if err := s.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("expected ErrAlreadyConnected, got %v", err)
	}
}

func TestSessionRead_BeforeBulkRead(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	s := NewSession(cfg.open)

	if _, err := s.ReadChannels(); !errors.Is(err, ErrNoBulkRead) {
		t.Fatalf("expected ErrNoBulkRead, got %v", err)
	}
	if _, err := s.ReadZones(); !errors.Is(err, ErrNoBulkRead) {
		t.Fatalf("expected ErrNoBulkRead, got %v", err)
	}
	if err := s.BulkRead(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSessionWriteChannels_RoundTrip(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	s := NewSession(cfg.open, WithInterBlockDelay(0))
	ctx := context.Background()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.BulkRead(ctx); err != nil {
		t.Fatalf("bulk read: %v", err)
	}

	want := []Channel{
		{Name: "Calling", RxFreqMHz: 145.5, TxFreqMHz: 145.5, ForbidTX: true},
		{Name: "Repeater", RxFreqMHz: 438.8, TxFreqMHz: 431.2, Mode: ModeDigital, ColorCode: 7, ForbidTX: false},
		{Name: "Hotspot", RxFreqMHz: 434.0, TxFreqMHz: 434.0, Mode: ModeDigital, ColorCode: 1, ForbidTX: true},
	}
	if err := s.WriteChannels(ctx, want); err != nil {
		t.Fatalf("write channels: %v", err)
	}
	if cfg.writes == 0 {
		t.Fatal("no blocks reached the device")
	}
	if s.IsConnected() {
		t.Error("write must disconnect when done")
	}

	// The cache mirrors the device after a write.
	got, err := s.ReadChannels()
	if err != nil {
		t.Fatalf("read channels from cache: %v", err)
	}
	assertChannels(t, got, want)

	// A fresh session over the mutated image sees the same thing: the full
	// wire round trip holds.
	s2 := NewSession(cfg.open, WithInterBlockDelay(0))
	if err := s2.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	res, err := s2.ReadAll(ctx)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	assertChannels(t, res.Channels, want)

	// Unrelated blocks survive the write untouched.
	if len(res.Zones) != 1 || res.Zones[0].Name != "Zone 1" {
		t.Errorf("zones damaged by channel write: %+v", res.Zones)
	}
}

func assertChannels(t *testing.T, got, want []Channel) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d channels, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Name != want[i].Name {
			t.Errorf("channel %d: name %q, want %q", i+1, got[i].Name, want[i].Name)
		}
		if got[i].RxFreqMHz != want[i].RxFreqMHz || got[i].TxFreqMHz != want[i].TxFreqMHz {
			t.Errorf("channel %d: freq %f/%f, want %f/%f", i+1,
				got[i].RxFreqMHz, got[i].TxFreqMHz, want[i].RxFreqMHz, want[i].TxFreqMHz)
		}
		if got[i].ForbidTX != want[i].ForbidTX {
			t.Errorf("channel %d: forbid TX %v, want %v", i+1, got[i].ForbidTX, want[i].ForbidTX)
		}
	}
}

func TestSessionWriteZones_RoundTrip(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	s := NewSession(cfg.open, WithInterBlockDelay(0))
	ctx := context.Background()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.BulkRead(ctx); err != nil {
		t.Fatalf("bulk read: %v", err)
	}

	want := []Zone{
		{Name: "VHF", Channels: []uint16{1}},
		{Name: "UHF", Channels: []uint16{2}},
	}
	if err := s.WriteZones(ctx, want); err != nil {
		t.Fatalf("write zones: %v", err)
	}

	got, err := s.ReadZones()
	if err != nil {
		t.Fatalf("read zones: %v", err)
	}
	if len(got) != 2 || got[0].Name != "VHF" || got[1].Name != "UHF" {
		t.Errorf("unexpected zones %+v", got)
	}
}

func TestSessionWriteZones_WarnsOnStaleMembers(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	s := NewSession(cfg.open, WithInterBlockDelay(0))
	ctx := context.Background()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.BulkRead(ctx); err != nil {
		t.Fatalf("bulk read: %v", err)
	}

	// The image holds two channels; member 9 points past them.
	zones := []Zone{{Name: "Stale", Channels: []uint16{1, 9}}}
	if err := s.WriteZones(ctx, zones); err != nil {
		t.Fatalf("write zones: %v", err)
	}
	if !containsWarning(s.Warnings(), "beyond channel count") {
		t.Errorf("stale zone member produced no warning: %v", s.Warnings())
	}
}

func TestSessionWrite_BeforeBulkRead(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	s := NewSession(cfg.open)
	err := s.WriteChannels(context.Background(), []Channel{{Name: "X", RxFreqMHz: 145.5, TxFreqMHz: 145.5}})
	if !errors.Is(err, ErrNoBulkRead) {
		t.Fatalf("expected ErrNoBulkRead, got %v", err)
	}
}

func TestSessionProgressEvents(t *testing.T) {
	cfg := newFakeRadioConfig(testBase, testImage(t))
	s := NewSession(cfg.open, WithInterBlockDelay(0))
	ctx := context.Background()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.BulkRead(ctx); err != nil {
		t.Fatalf("bulk read: %v", err)
	}

	phases := map[Phase]bool{}
	for {
		select {
		case ev := <-s.Progress():
			phases[ev.Phase] = true
		default:
			if !phases[PhaseConnect] || !phases[PhaseDiscover] || !phases[PhaseRead] {
				t.Errorf("missing phases in %v", phases)
			}
			return
		}
	}
}
