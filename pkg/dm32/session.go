// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Opener produces the serial byte stream for a session. Write operations
// reconnect through it, since the bulk read closes the connection.
type Opener func() (io.ReadWriteCloser, error)

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	logger          *zap.SugaredLogger
	interBlockDelay time.Duration
	progressBuffer  int
}

// WithLogger attaches a logger. Wire traffic is logged at debug level.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *sessionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInterBlockDelay overrides the pause between block transfers.
func WithInterBlockDelay(d time.Duration) Option {
	return func(c *sessionConfig) {
		if d >= 0 {
			c.interBlockDelay = d
		}
	}
}

// Session is a programming session against one radio. There is at most one
// active connection and one outstanding exchange at any time; a second
// Connect while connected fails with ErrAlreadyConnected.
//
// The lifecycle is: Connect, BulkRead (which closes the connection once the
// cache is populated), then any number of cache-only Read accessors. Write
// operations reconnect on their own.
type Session struct {
	open     Opener
	cfg      sessionConfig
	log      *zap.SugaredLogger
	progress chan ProgressEvent

	mu        sync.Mutex
	transport *Transport
	info      *DeviceInfo
	index     *BlockIndex
	cache     *BlockCache
	stats     Stats
	warnings  []string
}

// NewSession creates a session that connects through open.
func NewSession(open Opener, opts ...Option) *Session {
	cfg := sessionConfig{
		logger:          zap.NewNop().Sugar(),
		interBlockDelay: defaultInterBlockDelay,
		progressBuffer:  64,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Session{
		open:     open,
		cfg:      cfg,
		log:      cfg.logger,
		progress: make(chan ProgressEvent, cfg.progressBuffer),
	}
}

// Progress returns the session's progress event channel. Events are dropped,
// not queued, when the consumer lags.
func (s *Session) Progress() <-chan ProgressEvent {
	return s.progress
}

// IsConnected reports whether the serial stream is currently open.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport != nil
}

// DeviceInfo returns the identity captured during the last handshake, or nil.
func (s *Session) DeviceInfo() *DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Warnings returns the non-fatal problems collected so far.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Connect opens the stream and drives the handshake. On any handshake error
// the attempt is aborted with a best-effort cleanup; cleanup failures are
// logged, never returned over the original error.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Session) connectLocked(ctx context.Context) error {
	if s.transport != nil {
		return ErrAlreadyConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.emit(PhaseConnect, 0, "opening port")
	rw, err := s.open()
	if err != nil {
		return fmt.Errorf("dm32: open port: %w", err)
	}
	t := NewTransport(rw, s.log)

	s.emit(PhaseConnect, 30, "handshaking")
	started := time.Now()
	info, err := runHandshake(t, s.log)
	if err != nil {
		if cerr := t.Close(); cerr != nil {
			s.log.Warnf("cleanup after failed handshake: %v", cerr)
		}
		return err
	}
	s.stats.HandshakeTime = time.Since(started)

	s.transport = t
	s.info = info
	s.emit(PhaseConnect, 100, fmt.Sprintf("connected to %s", info.Model))
	return nil
}

// Disconnect releases the stream. Safe to call any number of times, in any
// state; close failures are logged, never surfaced.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectLocked()
}

func (s *Session) disconnectLocked() {
	if s.transport == nil {
		return
	}
	if err := s.transport.Close(); err != nil {
		s.log.Warnf("close port: %v", err)
	}
	s.transport = nil
}

// BulkRead discovers the block inventory and performs the single sequential
// read of every block this session needs, then closes the connection. After
// it returns, every decode accessor works from cache alone.
func (s *Session) BulkRead(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	s.emit(PhaseDiscover, 0, "scanning memory blocks")
	idx, err := discoverBlocks(s.transport, s.info.ConfigStart, s.info.ConfigEnd, func(done, total int) {
		s.emit(PhaseDiscover, done*100/total, fmt.Sprintf("scanned %d/%d blocks", done, total))
	})
	if err != nil {
		return err
	}
	s.index = idx
	s.stats.DiscoverTime = time.Since(started)
	s.log.Infof("discovered %d blocks, %d channels", len(idx.Blocks), idx.ChannelCount)

	if err := ctx.Err(); err != nil {
		return err
	}

	started = time.Now()
	s.emit(PhaseRead, 0, "reading configuration")
	cache, err := bulkRead(s.transport, idx, s.cfg.interBlockDelay, func(done, total int) {
		s.emit(PhaseRead, done*100/total, fmt.Sprintf("read %d/%d blocks", done, total))
	})
	if err != nil {
		return err
	}
	s.cache = cache
	s.stats.ReadTime = time.Since(started)
	s.stats.BlocksRead += cache.Len()
	s.stats.BytesRead += int64(cache.Len()) * BlockSize

	// The cache now carries everything; the radio can go back to normal
	// operation while decoding runs.
	s.disconnectLocked()
	return nil
}

// ReadAll runs the full read flow against an already connected session and
// returns the aggregated result.
func (s *Session) ReadAll(ctx context.Context) (*Result, error) {
	if err := s.BulkRead(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.emit(PhaseDecode, 0, "decoding records")
	res := &Result{Info: s.info}

	res.Channels = s.decodeChannelsLocked()
	s.emit(PhaseDecode, 30, fmt.Sprintf("%d channels", len(res.Channels)))

	res.Zones = decodeZoneBlocks(s.cache.OfKind(KindZone), s.warnf)
	s.emit(PhaseDecode, 45, fmt.Sprintf("%d zones", len(res.Zones)))

	for _, b := range s.cache.OfKind(KindScanList) {
		res.ScanLists = append(res.ScanLists, DecodeScanLists(b.Data, b.Tag)...)
	}
	s.emit(PhaseDecode, 55, fmt.Sprintf("%d scan lists", len(res.ScanLists)))

	res.Contacts = s.decodeContactsLocked()
	s.emit(PhaseDecode, 70, fmt.Sprintf("%d contacts", len(res.Contacts)))

	// Everything below is independently optional: absence yields an empty
	// result and a warning, never a failed session.
	res.Messages = s.decodeOptionalMessages()
	res.RadioIDs = s.decodeOptionalRadioIDs()
	res.RXGroups = s.decodeOptionalRXGroups()
	res.CalParams = s.decodeOptionalCalParams()
	res.Settings = s.decodeOptionalSettings()
	res.DigitalEmergency = decodeEmergencyBlocks(s.cache.OfKind(KindDigitalEmergency))
	res.AnalogEmergency = decodeEmergencyBlocks(s.cache.OfKind(KindAnalogEmergency))

	for _, b := range s.cache.Blocks() {
		data := make([]byte, len(b.Data))
		copy(data, b.Data)
		res.Raw = append(res.Raw, RawBlock{Tag: b.Tag, Kind: b.Kind.String(), Address: b.Address, Data: data})
	}
	res.Warnings = append(res.Warnings, s.warnings...)
	res.Stats = s.stats

	s.emit(PhaseDecode, 100, "decode complete")
	return res, nil
}

func (s *Session) warnf(err error) {
	s.warnings = append(s.warnings, err.Error())
	s.log.Warn(err.Error())
}

// ReadChannels decodes the channel records from cache. Requires a prior
// BulkRead; no connection is needed.
func (s *Session) ReadChannels() ([]Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return nil, ErrNoBulkRead
	}
	return s.decodeChannelsLocked(), nil
}

// ReadZones decodes the zone records from cache.
func (s *Session) ReadZones() ([]Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return nil, ErrNoBulkRead
	}
	return decodeZoneBlocks(s.cache.OfKind(KindZone), s.warnf), nil
}

// ReadScanLists decodes the scan list records from cache.
func (s *Session) ReadScanLists() ([]ScanList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return nil, ErrNoBulkRead
	}
	var lists []ScanList
	for _, b := range s.cache.OfKind(KindScanList) {
		lists = append(lists, DecodeScanLists(b.Data, b.Tag)...)
	}
	return lists, nil
}

// ReadContacts decodes the contact records from cache.
func (s *Session) ReadContacts() ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return nil, ErrNoBulkRead
	}
	return s.decodeContactsLocked(), nil
}

// decodeChannelsLocked walks the channel blocks, gated by the count header.
// A malformed record is logged and skipped; it never aborts the batch.
func (s *Session) decodeChannelsLocked() []Channel {
	blocks := s.cache.OfKind(KindChannel)
	if len(blocks) == 0 || blocks[0].Tag != tagChannelFirst {
		return nil
	}
	count := int(binary.LittleEndian.Uint32(blocks[0].Data[0:4]))
	if count > MaxChannels {
		count = MaxChannels
	}

	channels := make([]Channel, 0, count)
	for n := 1; n <= count; n++ {
		blk, off := channelRecordPosition(n)
		if blk >= len(blocks) {
			s.warnf(fmt.Errorf("dm32: channel %d beyond cached blocks", n))
			break
		}
		rec := blocks[blk].Data[off : off+ChannelRecordSize]
		if recordBlank(rec) {
			continue
		}
		c, err := DecodeChannel(rec)
		if err != nil {
			s.warnf(&RecordError{Kind: KindChannel, Index: n, Reason: err.Error()})
			continue
		}
		c.Index = n
		if fb, foff, ok := channelFlagPosition(n); ok && fb < len(blocks) {
			c.ForbidTX = blocks[fb].Data[foff]&0x01 != 0
		} else {
			s.log.Debugf("channel %d: flag address out of range, assuming TX allowed", n)
		}
		channels = append(channels, c)
	}
	return channels
}

func (s *Session) decodeContactsLocked() []Contact {
	var contacts []Contact
	for _, b := range s.cache.OfKind(KindContact) {
		perBlock := BlockSize / ContactRecordSize
		done := false
		for i := 0; i < perBlock && !done; i++ {
			rec := b.Data[i*ContactRecordSize : (i+1)*ContactRecordSize]
			if recordBlank(rec) {
				done = true
				continue
			}
			c, err := DecodeContact(rec)
			if err != nil {
				s.warnf(&RecordError{Kind: KindContact, Index: len(contacts), Reason: err.Error()})
				continue
			}
			contacts = append(contacts, c)
		}
		if done {
			break
		}
	}
	return contacts
}

func (s *Session) decodeOptionalMessages() []TextMessage {
	b, ok := s.cache.ByTag(tagMessage)
	if !ok {
		s.warnf(fmt.Errorf("dm32: no quick message block present"))
		return nil
	}
	return decodeMessages(b.Data)
}

func (s *Session) decodeOptionalRadioIDs() []RadioID {
	// Radio IDs live in the VFO settings block, behind the 64-byte
	// settings record. Absence is normal on blank radios.
	b, ok := s.cache.ByTag(tagVfoSettings)
	if !ok {
		s.warnf(fmt.Errorf("dm32: no radio ID block present"))
		return nil
	}
	var ids []RadioID
	// IDs start behind the 64-byte settings record.
	for off := 64; off+RadioIDRecordSize <= 64+16*RadioIDRecordSize; off += RadioIDRecordSize {
		rec := b.Data[off : off+RadioIDRecordSize]
		if recordBlank(rec) {
			break
		}
		r, err := DecodeRadioID(rec)
		if err != nil {
			s.warnf(&RecordError{Kind: KindVfoSettings, Index: len(ids), Reason: err.Error()})
			continue
		}
		ids = append(ids, r)
	}
	return ids
}

func (s *Session) decodeOptionalRXGroups() []RXGroup {
	b, ok := s.cache.ByTag(tagRxGroup)
	if !ok {
		s.warnf(fmt.Errorf("dm32: no rx group block present"))
		return nil
	}
	var groups []RXGroup
	perBlock := BlockSize / RXGroupRecordSize
	for i := 0; i < perBlock; i++ {
		rec := b.Data[i*RXGroupRecordSize : (i+1)*RXGroupRecordSize]
		if recordBlank(rec) {
			break
		}
		g, err := DecodeRXGroup(rec)
		if err != nil {
			s.warnf(&RecordError{Kind: KindRxGroup, Index: i, Reason: err.Error()})
			continue
		}
		groups = append(groups, g)
	}
	return groups
}

func (s *Session) decodeOptionalCalParams() []CalParam {
	b, ok := s.cache.ByTag(tagCalibration)
	if !ok {
		s.warnf(fmt.Errorf("dm32: no calibration block present"))
		return nil
	}
	var params []CalParam
	perBlock := BlockSize / CalRecordSize
	for i := 0; i < perBlock; i++ {
		rec := b.Data[i*CalRecordSize : (i+1)*CalRecordSize]
		if recordBlank(rec) {
			break
		}
		p, err := DecodeCalParam(rec)
		if err != nil {
			s.warnf(&RecordError{Kind: KindCalibration, Index: i, Reason: err.Error()})
			continue
		}
		params = append(params, p)
	}
	return params
}

func (s *Session) decodeOptionalSettings() *RadioSettings {
	b, ok := s.cache.ByTag(tagVfoSettings)
	if !ok {
		s.warnf(fmt.Errorf("dm32: no settings block present"))
		return nil
	}
	return decodeRadioSettings(b.Data)
}
