// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package sources_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/connectors/mocks"
	"github.com/absmach/scadabind/logger"
	"github.com/absmach/scadabind/normalizer"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/pkg/uuid"
	"github.com/absmach/scadabind/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	stamp = now.Format(time.RFC3339Nano)

	mqttSource = sources.DataSource{
		ID:      "plant",
		Name:    "Plant Broker",
		Type:    sources.MQTT,
		Enabled: true,
		Config:  sources.Config{Broker: "mqtt://broker", Topic: "plant/+/telemetry"},
	}
	httpSource = sources.DataSource{
		ID:      "api",
		Name:    "REST API",
		Type:    sources.HTTP,
		Enabled: true,
		Config:  sources.Config{URL: "http://localhost/values", Headers: map[string]string{"X-Site": "north"}},
	}
)

func clock() time.Time {
	return now
}

type factory struct {
	mu         sync.Mutex
	connectors map[string][]*mocks.Connector
	headers    map[string]map[string]string
	connectErr error
}

func newFactory() *factory {
	return &factory{
		connectors: map[string][]*mocks.Connector{},
		headers:    map[string]map[string]string{},
	}
}

func (f *factory) build(ds sources.DataSource, global map[string]string) (connectors.Connector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := mocks.New()
	c.ConnectErr = f.connectErr
	f.connectors[ds.ID] = append(f.connectors[ds.ID], c)
	f.headers[ds.ID] = global
	return c, nil
}

func (f *factory) last(id string) *mocks.Connector {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.connectors[id]
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func (f *factory) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.connectors[id])
}

func newService() (sources.Service, *factory) {
	f := newFactory()
	svc := sources.New(f.build, normalizer.New(normalizer.WithClock(clock)), uuid.NewMock(), logger.NewMock(), sources.WithClock(clock))
	return svc, f
}

func decode(t *testing.T, s string) any {
	var v any
	require.Nil(t, json.Unmarshal([]byte(s), &v), "invalid test payload")
	return v
}

func TestAdd(t *testing.T) {
	svc, f := newService()

	cases := []struct {
		desc      string
		source    sources.DataSource
		id        string
		connected bool
		err       error
	}{
		{
			desc:      "add enabled source",
			source:    mqttSource,
			id:        mqttSource.ID,
			connected: true,
		},
		{
			desc:   "add existing source",
			source: mqttSource,
			err:    errors.ErrConflict,
		},
		{
			desc:   "add disabled source without id",
			source: sources.DataSource{Name: "draft", Type: sources.WebSocket},
			id:     fmt.Sprintf("%s%012d", uuid.Prefix, 1),
		},
		{
			desc:   "add source of unknown type",
			source: sources.DataSource{ID: "x", Type: "CoAP"},
			err:    sources.ErrUnknownType,
		},
		{
			desc:   "add enabled mqtt source without topic",
			source: sources.DataSource{ID: "x", Type: sources.MQTT, Enabled: true, Config: sources.Config{Broker: "h"}},
			err:    connectors.ErrMissingTopic,
		},
		{
			desc:   "add enabled sse source without url",
			source: sources.DataSource{ID: "x", Type: sources.SSE, Enabled: true},
			err:    connectors.ErrMissingURL,
		},
		{
			desc:   "add source with unknown parser preset",
			source: sources.DataSource{ID: "x", Type: sources.HTTP, Config: sources.Config{Parser: "bacnet"}},
			err:    sources.ErrUnknownParser,
		},
	}

	for _, tc := range cases {
		ds, err := svc.Add(context.Background(), tc.source)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		if tc.err != nil {
			continue
		}
		assert.Equal(t, tc.id, ds.ID, tc.desc)
		assert.Equal(t, tc.connected, ds.Status.Connected, tc.desc)
		if tc.connected {
			assert.Equal(t, connectors.Connected, ds.Status.State, tc.desc)
		}
	}
	assert.Equal(t, 1, f.count(mqttSource.ID), "only the enabled source gets a connector")
}

func TestAddCanonicalizesType(t *testing.T) {
	svc, f := newService()

	cases := []struct {
		desc string
		typ  sources.Type
		want sources.Type
	}{
		{desc: "lower case mqtt", typ: "mqtt", want: sources.MQTT},
		{desc: "lower case websocket", typ: "websocket", want: sources.WebSocket},
		{desc: "mixed case sse", typ: "Sse", want: sources.SSE},
		{desc: "padded http", typ: " http ", want: sources.HTTP},
	}

	for i, tc := range cases {
		src := sources.DataSource{
			ID:      fmt.Sprintf("src-%d", i),
			Type:    tc.typ,
			Enabled: true,
			Config:  sources.Config{Broker: "mqtt://broker", Topic: "t", URL: "http://localhost/values"},
		}
		ds, err := svc.Add(context.Background(), src)
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.want, ds.Type, tc.desc)
		assert.Equal(t, 1, f.count(src.ID), fmt.Sprintf("%s: expected a connector", tc.desc))
	}
}

func TestConnectFailureIsRecorded(t *testing.T) {
	svc, f := newService()
	errRefused := errors.New("connection refused")
	f.connectErr = errors.Wrap(connectors.ErrConnect, errRefused)

	ds, err := svc.Add(context.Background(), mqttSource)
	require.Nil(t, err, "connect failures must not be returned")
	assert.False(t, ds.Status.Connected)
	assert.Equal(t, connectors.Disconnected, ds.Status.State)
	assert.Equal(t, f.connectErr.Error(), ds.Status.Error)
}

func TestUpdate(t *testing.T) {
	svc, f := newService()
	_, err := svc.Add(context.Background(), mqttSource)
	require.Nil(t, err)

	name := "Renamed"
	disabled := false
	enabled := true
	cfg := mqttSource.Config
	cfg.Topic = "plant/+/status"

	cases := []struct {
		desc       string
		id         string
		update     sources.Update
		connectors int
		connected  bool
		check      func(ds sources.DataSource)
		err        error
	}{
		{
			desc:       "rename does not reconnect",
			id:         mqttSource.ID,
			update:     sources.Update{Name: &name},
			connectors: 1,
			connected:  true,
			check:      func(ds sources.DataSource) { assert.Equal(t, name, ds.Name) },
		},
		{
			desc:       "config change reconnects",
			id:         mqttSource.ID,
			update:     sources.Update{Config: &cfg},
			connectors: 2,
			connected:  true,
			check:      func(ds sources.DataSource) { assert.Equal(t, cfg.Topic, ds.Config.Topic) },
		},
		{
			desc:       "disable disconnects",
			id:         mqttSource.ID,
			update:     sources.Update{Enabled: &disabled},
			connectors: 2,
			connected:  false,
		},
		{
			desc:       "enable connects again",
			id:         mqttSource.ID,
			update:     sources.Update{Enabled: &enabled},
			connectors: 3,
			connected:  true,
		},
		{
			desc:       "update with invalid config",
			id:         mqttSource.ID,
			update:     sources.Update{Config: &sources.Config{Broker: "h"}},
			connectors: 3,
			err:        connectors.ErrMissingTopic,
		},
		{
			desc:       "update missing source",
			id:         "missing",
			update:     sources.Update{Name: &name},
			connectors: 3,
			err:        errors.ErrNotFound,
		},
	}

	for _, tc := range cases {
		ds, err := svc.Update(context.Background(), tc.id, tc.update)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		assert.Equal(t, tc.connectors, f.count(mqttSource.ID), tc.desc)
		if tc.err != nil {
			continue
		}
		assert.Equal(t, tc.connected, ds.Status.Connected, tc.desc)
		if tc.check != nil {
			tc.check(ds)
		}
	}

	f.mu.Lock()
	all := f.connectors[mqttSource.ID]
	f.mu.Unlock()
	for i, c := range all[:len(all)-1] {
		_, disconnects := c.Counts()
		assert.Equal(t, 1, disconnects, fmt.Sprintf("replaced connector %d must be disconnected once", i))
	}
}

func TestRemove(t *testing.T) {
	svc, f := newService()
	_, err := svc.Add(context.Background(), mqttSource)
	require.Nil(t, err)
	conn := f.last(mqttSource.ID)

	var got []any
	svc.OnData(func(_ string, payload any) { got = append(got, payload) })

	require.Nil(t, svc.Remove(context.Background(), mqttSource.ID))
	_, disconnects := conn.Counts()
	assert.Equal(t, 1, disconnects)

	conn.Emit(map[string]any{"temp": 1})
	assert.Empty(t, got, "a removed source must not broadcast")

	_, err = svc.Get(context.Background(), mqttSource.ID)
	assert.True(t, errors.Contains(err, errors.ErrNotFound))
	assert.True(t, errors.Contains(svc.Remove(context.Background(), mqttSource.ID), errors.ErrNotFound))
}

func TestAll(t *testing.T) {
	svc, _ := newService()
	for _, ds := range []sources.DataSource{mqttSource, httpSource} {
		_, err := svc.Add(context.Background(), ds)
		require.Nil(t, err)
	}

	all, err := svc.All(context.Background())
	require.Nil(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, httpSource.ID, all[0].ID)
	assert.Equal(t, mqttSource.ID, all[1].ID)
}

func TestNormalization(t *testing.T) {
	cases := []struct {
		desc    string
		payload string
		devices []scadabind.Device
	}{
		{
			desc:    "multi-device wrapper keeps parsable entries",
			payload: `{"devices":[{"id":"pump-1","name":"Pump","points":[{"id":"rpm","value":1200}]},{"nothing":null},{"deviceId":"valve","open":true}]}`,
			devices: []scadabind.Device{
				{
					ID:   "pump-1",
					Name: "Pump",
					Points: []scadabind.Point{
						{ID: "rpm", Name: "rpm", Code: "rpm", Value: 1200.0, Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeNumber, AccessMode: scadabind.AccessRead},
					},
				},
				{
					ID:   "valve",
					Name: "valve",
					Points: []scadabind.Point{
						{ID: "open", Name: "open", Code: "open", Value: true, Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeBoolean, AccessMode: scadabind.AccessRead},
					},
				},
			},
		},
		{
			desc:    "bare device array",
			payload: `[{"id":"a","points":[{"id":"p","value":"on"}]}]`,
			devices: []scadabind.Device{
				{
					ID:   "a",
					Name: "a",
					Points: []scadabind.Point{
						{ID: "p", Name: "p", Code: "p", Value: "on", Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeString, AccessMode: scadabind.AccessRead},
					},
				},
			},
		},
		{
			desc:    "nested payload without device id is not parsed",
			payload: `{"device":{"id":"","data":{"temp":21}},"x":1}`,
			devices: nil,
		},
		{
			desc:    "flat single device",
			payload: `{"deviceId":"boiler","temp":80}`,
			devices: []scadabind.Device{
				{
					ID:   "boiler",
					Name: "boiler",
					Points: []scadabind.Point{
						{ID: "temp", Name: "temp", Code: "temp", Value: 80.0, Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeNumber, AccessMode: scadabind.AccessRead},
					},
				},
			},
		},
	}

	for _, tc := range cases {
		svc, f := newService()
		_, err := svc.Add(context.Background(), mqttSource)
		require.Nil(t, err, tc.desc)

		f.last(mqttSource.ID).Emit(decode(t, tc.payload))
		devices, err := svc.Devices(context.Background(), mqttSource.ID)
		require.Nil(t, err, tc.desc)
		if tc.devices == nil {
			assert.Empty(t, devices, tc.desc)
			continue
		}
		assert.Equal(t, tc.devices, devices, tc.desc)
	}
}

func TestArrayFallback(t *testing.T) {
	cases := []struct {
		desc     string
		payload  string
		deviceID string
		name     string
		pointID  string
	}{
		{
			desc:     "array entries with ids are read as devices",
			payload:  `[{"id":"temp","value":1}]`,
			deviceID: "temp",
			name:     "temp",
			pointID:  "value",
		},
		{
			desc:     "array without device ids falls back to the source device",
			payload:  `[{"id":null,"pointId":"temp","value":1}]`,
			deviceID: normalizer.DefaultDeviceID,
			name:     mqttSource.Name,
			pointID:  "temp",
		},
	}

	for _, tc := range cases {
		svc, f := newService()
		_, err := svc.Add(context.Background(), mqttSource)
		require.Nil(t, err, tc.desc)

		f.last(mqttSource.ID).Emit(decode(t, tc.payload))
		devices, err := svc.Devices(context.Background(), mqttSource.ID)
		require.Nil(t, err, tc.desc)
		require.Len(t, devices, 1, tc.desc)
		assert.Equal(t, tc.deviceID, devices[0].ID, tc.desc)
		assert.Equal(t, tc.name, devices[0].Name, tc.desc)
		require.Len(t, devices[0].Points, 1, tc.desc)
		assert.Equal(t, tc.pointID, devices[0].Points[0].ID, tc.desc)
	}
}

func TestStaleCacheOnUnsupportedPayload(t *testing.T) {
	svc, f := newService()
	_, err := svc.Add(context.Background(), mqttSource)
	require.Nil(t, err)
	conn := f.last(mqttSource.ID)

	var raw []any
	svc.OnData(func(id string, payload any) {
		assert.Equal(t, mqttSource.ID, id)
		raw = append(raw, payload)
	})

	conn.Emit(decode(t, `{"deviceId":"boiler","temp":80}`))
	conn.Emit("not a device")

	devices, err := svc.Devices(context.Background(), mqttSource.ID)
	require.Nil(t, err)
	require.Len(t, devices, 1, "unsupported payload must keep the previous cache")
	assert.Equal(t, "boiler", devices[0].ID)
	assert.Equal(t, []any{decode(t, `{"deviceId":"boiler","temp":80}`), "not a device"}, raw, "listeners get every raw payload")

	ds, err := svc.Get(context.Background(), mqttSource.ID)
	require.Nil(t, err)
	assert.Equal(t, stamp, ds.Status.LastUpdate)
}

func TestCustomParser(t *testing.T) {
	svc, f := newService()
	ds := mqttSource
	ds.Config.Parser = normalizer.PresetModbus
	_, err := svc.Add(context.Background(), ds)
	require.Nil(t, err)

	f.last(ds.ID).Emit(decode(t, `{"slaveId":3,"registers":[{"address":40001,"value":12}]}`))
	devices, err := svc.Devices(context.Background(), ds.ID)
	require.Nil(t, err)
	require.Len(t, devices, 1)
	require.Len(t, devices[0].Points, 1)
	assert.Equal(t, "reg_40001", devices[0].Points[0].ID)
	assert.Equal(t, scadabind.AccessRead, devices[0].Points[0].AccessMode)
}

func TestOnDataUnsubscribe(t *testing.T) {
	svc, f := newService()
	_, err := svc.Add(context.Background(), mqttSource)
	require.Nil(t, err)

	var first, second int
	unsub := svc.OnData(func(string, any) { first++ })
	svc.OnData(func(string, any) { second++ })

	f.last(mqttSource.ID).Emit(map[string]any{"deviceId": "d", "v": 1})
	unsub()
	unsub()
	f.last(mqttSource.ID).Emit(map[string]any{"deviceId": "d", "v": 2})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestStatusTracking(t *testing.T) {
	svc, f := newService()
	_, err := svc.Add(context.Background(), mqttSource)
	require.Nil(t, err)
	conn := f.last(mqttSource.ID)

	conn.Fail(errors.Wrap(connectors.ErrTransport, errors.New("socket closed")))
	conn.SetState(connectors.Reconnecting)
	ds, err := svc.Get(context.Background(), mqttSource.ID)
	require.Nil(t, err)
	assert.False(t, ds.Status.Connected)
	assert.Equal(t, connectors.Reconnecting, ds.Status.State)
	assert.NotEmpty(t, ds.Status.Error)

	conn.SetState(connectors.Connected)
	ds, err = svc.Get(context.Background(), mqttSource.ID)
	require.Nil(t, err)
	assert.True(t, ds.Status.Connected)
	assert.Empty(t, ds.Status.Error, "reconnect clears the error")
}

func TestSetGlobalHTTPHeaders(t *testing.T) {
	svc, f := newService()
	_, err := svc.Add(context.Background(), httpSource)
	require.Nil(t, err)
	_, err = svc.Add(context.Background(), mqttSource)
	require.Nil(t, err)

	require.Nil(t, svc.SetGlobalHTTPHeaders(context.Background(), map[string]string{"Authorization": "Bearer t"}))
	assert.Equal(t, "Bearer t", f.last(httpSource.ID).Header("Authorization"), "live HTTP connectors get the headers")
	assert.Empty(t, f.last(mqttSource.ID).Header("Authorization"), "only HTTP connectors are updated")

	ds := httpSource
	ds.ID = "api-2"
	_, err = svc.Add(context.Background(), ds)
	require.Nil(t, err)
	f.mu.Lock()
	assert.Equal(t, map[string]string{"Authorization": "Bearer t"}, f.headers["api-2"], "future sources get the headers")
	f.mu.Unlock()
}

func TestIngest(t *testing.T) {
	svc, _ := newService()
	ds := httpSource
	ds.Enabled = false
	_, err := svc.Add(context.Background(), ds)
	require.Nil(t, err)

	var got []string
	svc.OnData(func(id string, _ any) { got = append(got, id) })

	cases := []struct {
		desc string
		id   string
		err  error
	}{
		{desc: "ingest into existing source", id: ds.ID},
		{desc: "ingest into missing source", id: "missing", err: errors.ErrNotFound},
	}
	for _, tc := range cases {
		err := svc.Ingest(context.Background(), tc.id, map[string]any{"deviceId": "d", "v": 1})
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
	}
	assert.Equal(t, []string{ds.ID}, got)

	devices, err := svc.Devices(context.Background(), ds.ID)
	require.Nil(t, err)
	require.Len(t, devices, 1)
}

func TestSend(t *testing.T) {
	svc, f := newService()
	_, err := svc.Add(context.Background(), mqttSource)
	require.Nil(t, err)
	ds := httpSource
	ds.Enabled = false
	_, err = svc.Add(context.Background(), ds)
	require.Nil(t, err)

	cases := []struct {
		desc string
		id   string
		err  error
	}{
		{desc: "send through connected source", id: mqttSource.ID},
		{desc: "send through disabled source", id: ds.ID, err: connectors.ErrNotConnected},
		{desc: "send through missing source", id: "missing", err: errors.ErrNotFound},
	}
	for _, tc := range cases {
		err := svc.Send(context.Background(), tc.id, map[string]any{"setpoint": 20})
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
	}
	assert.Equal(t, []any{map[string]any{"setpoint": 20}}, f.last(mqttSource.ID).SentPayloads())
}

func TestDisconnectAll(t *testing.T) {
	svc, f := newService()
	for _, ds := range []sources.DataSource{mqttSource, httpSource} {
		_, err := svc.Add(context.Background(), ds)
		require.Nil(t, err)
	}

	require.Nil(t, svc.DisconnectAll(context.Background()))
	for _, id := range []string{mqttSource.ID, httpSource.ID} {
		_, disconnects := f.last(id).Counts()
		assert.Equal(t, 1, disconnects, id)
		ds, err := svc.Get(context.Background(), id)
		require.Nil(t, err)
		assert.False(t, ds.Status.Connected, id)
	}

	all, err := svc.All(context.Background())
	require.Nil(t, err)
	assert.Len(t, all, 2, "sources stay configured")
}
