// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/logger"
	"github.com/absmach/scadabind/normalizer"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/pkg/values"
)

const (
	devicesKey     = "devices"
	listDevicePref = "device-"
)

// Service specifies an API that must be fullfiled by the data source
// manager. It owns one live connector per enabled source.
type Service interface {
	// Add stores a data source and connects it when enabled. A missing id
	// is generated. Connect failures are recorded in the source status.
	Add(ctx context.Context, ds DataSource) (DataSource, error)

	// Update applies a partial update and reconnects when the config or
	// the enabled flag was part of it.
	Update(ctx context.Context, id string, u Update) (DataSource, error)

	// Remove disconnects and deletes a data source.
	Remove(ctx context.Context, id string) error

	// Get returns a snapshot of a data source.
	Get(ctx context.Context, id string) (DataSource, error)

	// All returns snapshots of every data source ordered by id.
	All(ctx context.Context) ([]DataSource, error)

	// AllDevices returns the cached devices of every data source.
	AllDevices(ctx context.Context) ([]DeviceRef, error)

	// Devices returns the cached devices of one data source.
	Devices(ctx context.Context, id string) ([]scadabind.Device, error)

	// DisconnectAll tears down every connector. Sources stay configured.
	DisconnectAll(ctx context.Context) error

	// SetGlobalHTTPHeaders merges headers into the set sent by every HTTP
	// source, including the ones already polling.
	SetGlobalHTTPHeaders(ctx context.Context, headers map[string]string) error

	// Ingest processes payload as if the source's transport delivered it.
	Ingest(ctx context.Context, id string, payload any) error

	// Send writes payload back through the source's transport.
	Send(ctx context.Context, id string, payload any) error

	// OnData registers a raw payload listener and returns a func that
	// removes it.
	OnData(l Listener) func()
}

type rawData struct {
	sourceID string
	payload  any
}

type entry struct {
	ds     DataSource
	conn   connectors.Connector
	parser normalizer.Service
	unsubs []func()
	gen    uint64
}

// detach hands over the live connector and its subscriptions.
func (e *entry) detach() (connectors.Connector, []func()) {
	conn, unsubs := e.conn, e.unsubs
	e.conn, e.unsubs = nil, nil
	return conn, unsubs
}

var _ Service = (*service)(nil)

type service struct {
	factory    ConnectorFactory
	normalizer normalizer.Service
	idProvider scadabind.IDProvider
	logger     logger.Logger
	now        func() time.Time

	mu        sync.RWMutex
	entries   map[string]*entry
	headers   map[string]string
	listeners connectors.Emitter[rawData]
}

// Option configures the data source manager.
type Option func(*service)

// WithClock sets the clock used to stamp status.lastUpdate.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New instantiates the data source manager.
func New(factory ConnectorFactory, norm normalizer.Service, idp scadabind.IDProvider, logger logger.Logger, opts ...Option) Service {
	s := &service{
		factory:    factory,
		normalizer: norm,
		idProvider: idp,
		logger:     logger,
		now:        time.Now,
		entries:    map[string]*entry{},
		headers:    map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Add(ctx context.Context, ds DataSource) (DataSource, error) {
	if err := ds.Validate(); err != nil {
		return DataSource{}, err
	}
	ds.Type, _ = ParseType(string(ds.Type))
	if ds.ID == "" {
		id, err := s.idProvider.ID()
		if err != nil {
			return DataSource{}, err
		}
		ds.ID = id
	}
	ds.Status = Status{}
	ds.Devices = nil

	s.mu.Lock()
	if _, ok := s.entries[ds.ID]; ok {
		s.mu.Unlock()
		return DataSource{}, errors.ErrConflict
	}
	s.entries[ds.ID] = &entry{ds: ds}
	s.mu.Unlock()

	if ds.Enabled {
		s.connect(ctx, ds.ID)
	}
	return s.Get(ctx, ds.ID)
}

func (s *service) Update(ctx context.Context, id string, u Update) (DataSource, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return DataSource{}, errors.ErrNotFound
	}
	ds := e.ds
	if u.Name != nil {
		ds.Name = *u.Name
	}
	if u.Enabled != nil {
		ds.Enabled = *u.Enabled
	}
	if u.Config != nil {
		ds.Config = *u.Config
	}
	if err := ds.Validate(); err != nil {
		s.mu.Unlock()
		return DataSource{}, err
	}
	e.ds = ds
	s.mu.Unlock()

	if u.Config != nil || u.Enabled != nil {
		s.connect(ctx, id)
	}
	return s.Get(ctx, id)
}

func (s *service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return errors.ErrNotFound
	}
	e.gen++
	conn, unsubs := e.detach()
	delete(s.entries, id)
	s.mu.Unlock()

	s.close(id, conn, unsubs)
	return nil
}

func (s *service) Get(ctx context.Context, id string) (DataSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return DataSource{}, errors.ErrNotFound
	}
	return snapshot(e.ds), nil
}

func (s *service) All(ctx context.Context) ([]DataSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]DataSource, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, snapshot(e.ds))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (s *service) AllDevices(ctx context.Context) ([]DeviceRef, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	refs := []DeviceRef{}
	for _, ds := range all {
		for _, d := range ds.Devices {
			refs = append(refs, DeviceRef{
				DataSourceID:   ds.ID,
				DataSourceName: ds.Name,
				Device:         d,
			})
		}
	}
	return refs, nil
}

func (s *service) Devices(ctx context.Context, id string) ([]scadabind.Device, error) {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ds.Devices == nil {
		return []scadabind.Device{}, nil
	}
	return ds.Devices, nil
}

func (s *service) DisconnectAll(ctx context.Context) error {
	type detached struct {
		id     string
		conn   connectors.Connector
		unsubs []func()
	}

	s.mu.Lock()
	var all []detached
	for id, e := range s.entries {
		e.gen++
		conn, unsubs := e.detach()
		e.ds.Status.State = connectors.Disconnected
		e.ds.Status.Connected = false
		all = append(all, detached{id: id, conn: conn, unsubs: unsubs})
	}
	s.mu.Unlock()

	for _, d := range all {
		s.close(d.id, d.conn, d.unsubs)
	}
	return nil
}

func (s *service) SetGlobalHTTPHeaders(ctx context.Context, headers map[string]string) error {
	s.mu.Lock()
	for k, v := range headers {
		s.headers[k] = v
	}
	var live []connectors.HeaderUpdater
	for _, e := range s.entries {
		if e.ds.Type != HTTP || e.conn == nil {
			continue
		}
		if hu, ok := e.conn.(connectors.HeaderUpdater); ok {
			live = append(live, hu)
		}
	}
	s.mu.Unlock()

	for _, hu := range live {
		hu.UpdateHeaders(headers)
	}
	return nil
}

func (s *service) Ingest(ctx context.Context, id string, payload any) error {
	s.mu.RLock()
	e, ok := s.entries[id]
	var gen uint64
	if ok {
		gen = e.gen
	}
	s.mu.RUnlock()
	if !ok {
		return errors.ErrNotFound
	}

	s.handle(id, gen, payload)
	return nil
}

func (s *service) Send(ctx context.Context, id string, payload any) error {
	s.mu.RLock()
	e, ok := s.entries[id]
	var conn connectors.Connector
	if ok {
		conn = e.conn
	}
	s.mu.RUnlock()

	switch {
	case !ok:
		return errors.ErrNotFound
	case conn == nil:
		return connectors.ErrNotConnected
	}
	sender, ok := conn.(connectors.Sender)
	if !ok {
		return ErrSendUnsupported
	}
	return sender.Send(ctx, payload)
}

func (s *service) OnData(l Listener) func() {
	return s.listeners.Subscribe(func(r rawData) {
		l(r.sourceID, r.payload)
	})
}

// connect replaces the connector of a source with a fresh one. Connect
// errors end up in the status and the log only.
func (s *service) connect(ctx context.Context, id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.gen++
	gen := e.gen
	old, oldUnsubs := e.detach()
	e.ds.Status.State = connectors.Disconnected
	e.ds.Status.Connected = false
	ds := e.ds
	headers := mergeHeaders(s.headers)
	s.mu.Unlock()

	s.close(id, old, oldUnsubs)
	if !ds.Enabled {
		return
	}

	parser, err := s.parser(ds.Config)
	if err != nil {
		s.fail(id, gen, err)
		return
	}
	conn, err := s.factory(ds, headers)
	if err != nil {
		s.fail(id, gen, err)
		return
	}
	unsubs := []func(){
		conn.OnData(func(payload any) { s.handle(id, gen, payload) }),
		conn.OnError(func(err error) { s.fail(id, gen, err) }),
		conn.OnStatusChange(func(st connectors.State) { s.status(id, gen, st) }),
	}

	s.mu.Lock()
	if cur, ok := s.entries[id]; !ok || cur.gen != gen {
		s.mu.Unlock()
		for _, u := range unsubs {
			u()
		}
		return
	}
	e.conn, e.unsubs, e.parser = conn, unsubs, parser
	s.mu.Unlock()

	if err := conn.Connect(ctx); err != nil {
		s.logger.Warn(fmt.Sprintf("Failed to connect data source %s (%s): %s", ds.Name, id, err))
		s.fail(id, gen, err)
	}
}

func (s *service) close(id string, conn connectors.Connector, unsubs []func()) {
	for _, u := range unsubs {
		u()
	}
	if conn == nil {
		return
	}
	if err := conn.Disconnect(); err != nil {
		s.logger.Warn(fmt.Sprintf("Failed to disconnect data source %s: %s", id, err))
	}
}

func (s *service) parser(cfg Config) (normalizer.Service, error) {
	switch {
	case cfg.CustomParser != nil:
		return normalizer.NewCustom(cfg.CustomParser.Mapping()), nil
	case cfg.Parser != "":
		return normalizer.Preset(cfg.Parser)
	default:
		return nil, nil
	}
}

// handle stamps the source, refreshes its device cache and broadcasts the
// raw payload. Stale generations are dropped.
func (s *service) handle(id string, gen uint64, payload any) {
	s.mu.RLock()
	e, ok := s.entries[id]
	if !ok || e.gen != gen {
		s.mu.RUnlock()
		return
	}
	name, parser := e.ds.Name, e.parser
	s.mu.RUnlock()

	devices, parsed := s.normalize(parser, name, payload)

	s.mu.Lock()
	if e, ok = s.entries[id]; !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	e.ds.Status.LastUpdate = s.now().UTC().Format(time.RFC3339Nano)
	if parsed {
		e.ds.Devices = devices
	}
	s.mu.Unlock()

	if !parsed {
		s.logger.Warn(fmt.Sprintf("Data source %s (%s) received an unsupported payload format, supported formats: %s", name, id, normalizer.SupportedFormats))
	}
	s.listeners.Emit(rawData{sourceID: id, payload: payload})
}

func (s *service) fail(id string, gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok && e.gen == gen {
		e.ds.Status.Error = err.Error()
	}
}

func (s *service) status(id string, gen uint64, st connectors.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.gen != gen {
		return
	}
	e.ds.Status.State = st
	e.ds.Status.Connected = st == connectors.Connected
	if e.ds.Status.Connected {
		e.ds.Status.Error = ""
	}
}

// normalize turns a raw payload into the device list of a source. It
// reports false when no device could be parsed.
func (s *service) normalize(custom normalizer.Service, sourceName string, payload any) ([]scadabind.Device, bool) {
	if custom != nil {
		d, err := custom.Parse(payload, normalizer.DefaultDeviceID, sourceName)
		if err != nil {
			return nil, false
		}
		return []scadabind.Device{reshape(d)}, true
	}

	if m, ok := payload.(map[string]any); ok {
		if list, ok := m[devicesKey].([]any); ok {
			if devices := s.parseList(list); len(devices) > 0 {
				return devices, true
			}
		}
	}
	if list, ok := payload.([]any); ok && len(list) > 0 {
		if devices := s.parseList(list); len(devices) > 0 {
			return devices, true
		}
	}

	d, err := s.normalizer.Parse(payload, normalizer.DefaultDeviceID, sourceName)
	if err != nil {
		return nil, false
	}
	return []scadabind.Device{reshape(d)}, true
}

// parseList parses each entry as a device on its own, keeping the ones
// that succeed.
func (s *service) parseList(list []any) []scadabind.Device {
	devices := []scadabind.Device{}
	for _, item := range list {
		m, _ := item.(map[string]any)
		id, ok := values.ID(m["id"])
		if !ok {
			if id, ok = values.ID(m["deviceId"]); !ok {
				id = fmt.Sprintf("%s%d", listDevicePref, len(devices))
			}
		}
		name, ok := values.ID(m["name"])
		if !ok {
			name, _ = values.ID(m["deviceName"])
		}

		d, err := s.normalizer.Parse(item, id, name)
		if err != nil {
			continue
		}
		devices = append(devices, reshape(d))
	}
	return devices
}

// reshape fills the point fields the device views expect.
func reshape(d scadabind.Device) scadabind.Device {
	points := make([]scadabind.Point, len(d.Points))
	for i, p := range d.Points {
		if p.Name == "" {
			p.Name = p.ID
		}
		if p.Code == "" {
			p.Code = p.ID
		}
		if p.DataType == "" {
			p.DataType = scadabind.DataTypeNumber
		}
		p.AccessMode = scadabind.AccessRead
		points[i] = p
	}
	d.Points = points
	return d
}

func snapshot(ds DataSource) DataSource {
	if ds.Devices != nil {
		devices := make([]scadabind.Device, len(ds.Devices))
		for i, d := range ds.Devices {
			d.Points = append([]scadabind.Point(nil), d.Points...)
			devices[i] = d
		}
		ds.Devices = devices
	}
	ds.Config.Headers = cloneHeaders(ds.Config.Headers)
	return ds
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	c := make(map[string]string, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}
