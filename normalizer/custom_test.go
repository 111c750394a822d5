// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package normalizer_test

import (
	"fmt"
	"testing"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/normalizer"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	cases := []struct {
		desc    string
		preset  string
		payload string
		device  scadabind.Device
		err     error
	}{
		{
			desc:    "iot platform telemetry",
			preset:  normalizer.PresetIoTPlatform,
			payload: `{"deviceInfo":{"id":"gw-1","name":"Gateway"},"telemetry":[{"key":"temp","value":21},{"key":"door","value":true,"unit":""}]}`,
			device: scadabind.Device{
				ID:   "gw-1",
				Name: "Gateway",
				Points: []scadabind.Point{
					{ID: "temp", Name: "temp", Value: 21.0, Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeNumber},
					{ID: "door", Name: "door", Value: true, Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeBoolean},
				},
			},
		},
		{
			desc:    "modbus registers",
			preset:  normalizer.PresetModbus,
			payload: `{"slaveId":3,"slaveName":"Drive","registers":[{"address":40001,"value":120},{"address":40002,"value":7}]}`,
			device: scadabind.Device{
				ID:   "3",
				Name: "Drive",
				Points: []scadabind.Point{
					{ID: "reg_40001", Name: "reg_40001", Value: 120.0, Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeNumber},
					{ID: "reg_40002", Name: "reg_40002", Value: 7.0, Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeNumber},
				},
			},
		},
		{
			desc:    "opc ua single value object",
			preset:  normalizer.PresetOPCUA,
			payload: `{"nodeId":"ns=2;s=Line1","displayName":"Line 1","values":{"browseName":"Speed","value":{"value":3.5}}}`,
			device: scadabind.Device{
				ID:     "ns=2;s=Line1",
				Name:   "Line 1",
				Points: []scadabind.Point{{ID: "Speed", Name: "Speed", Value: 3.5, Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeNumber}},
			},
		},
		{
			desc:    "missing points list",
			preset:  normalizer.PresetModbus,
			payload: `{"slaveId":3}`,
			err:     normalizer.ErrUnrecognizedFormat,
		},
		{
			desc:    "points without ids",
			preset:  normalizer.PresetIoTPlatform,
			payload: `{"deviceInfo":{"id":"gw"},"telemetry":[{"value":1}]}`,
			err:     normalizer.ErrUnrecognizedFormat,
		},
	}

	for _, tc := range cases {
		svc, err := normalizer.Preset(tc.preset, normalizer.WithClock(clock))
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		dev, err := svc.Parse(decode(t, tc.payload), "", "")
		assert.Equal(t, tc.err, err, fmt.Sprintf("%s: expected error %v got %v", tc.desc, tc.err, err))
		assert.Equal(t, tc.device, dev, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.device, dev))
	}
}

func TestCustomFallbacks(t *testing.T) {
	svc := normalizer.NewCustom(normalizer.PathMapping{
		DeviceID:   "meta.serial",
		DeviceName: "meta.label",
		Points:     "readings",
	}.Mapping(), normalizer.WithClock(clock))

	dev, err := svc.Parse(decode(t, `{"readings":[{"id":"a","value":1}]}`), "fallback", "Fallback")
	require.Nil(t, err)
	assert.Equal(t, "fallback", dev.ID)
	assert.Equal(t, "Fallback", dev.Name)
	assert.Len(t, dev.Points, 1)
}

func TestCustomFuncSelectors(t *testing.T) {
	svc := normalizer.NewCustom(normalizer.Mapping{
		DeviceID: func(data any) any { return "fixed" },
		Points:   normalizer.Path("rows"),
		PointID: func(_, point any) any {
			row := point.([]any)
			return row[0]
		},
		PointValue: func(_, point any) any {
			row := point.([]any)
			return row[1]
		},
	}, normalizer.WithClock(clock))

	dev, err := svc.Parse(decode(t, `{"rows":[["a",1],["b","x"]]}`), "", "")
	require.Nil(t, err)
	assert.Equal(t, scadabind.Device{
		ID:   "fixed",
		Name: "fixed",
		Points: []scadabind.Point{
			{ID: "a", Name: "a", Value: 1.0, Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeNumber},
			{ID: "b", Name: "b", Value: "x", Quality: scadabind.QualityGood, Timestamp: stamp, DataType: scadabind.DataTypeString},
		},
	}, dev)
}

func TestUnknownPreset(t *testing.T) {
	_, err := normalizer.Preset("bacnet")
	assert.True(t, errors.Contains(err, normalizer.ErrUnknownPreset), fmt.Sprintf("expected %s got %s", normalizer.ErrUnknownPreset, err))
	assert.Equal(t, []string{"iotPlatform", "modbus", "opcua"}, normalizer.PresetNames())
}
