// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnmarshalText(t *testing.T) {
	cases := []struct {
		desc   string
		input  string
		output Level
		err    error
	}{
		{"unknown level", "Not_A_Level", 0, ErrInvalidLogLevel},
		{"empty level", "", 0, ErrInvalidLogLevel},
		{"debug lowercase", "debug", Debug, nil},
		{"debug uppercase", "DEBUG", Debug, nil},
		{"info lowercase", "info", Info, nil},
		{"info padded", " info ", Info, nil},
		{"warn lowercase", "warn", Warn, nil},
		{"warning alias", "WARNING", Warn, nil},
		{"error mixed case", "Error", Error, nil},
	}

	for _, tc := range cases {
		var lvl Level
		err := lvl.UnmarshalText(tc.input)
		assert.Equal(t, tc.output, lvl, fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.output, lvl))
		assert.Equal(t, tc.err, err, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.err, err))
	}
}

func TestLevelIsAllowed(t *testing.T) {
	cases := []struct {
		desc      string
		requested Level
		allowed   Level
		output    bool
	}{
		{"debug at debug", Debug, Debug, true},
		{"error at debug", Error, Debug, true},
		{"warn at info", Warn, Info, true},
		{"error at error", Error, Error, true},
		{"debug at error", Debug, Error, false},
		{"info at warn", Info, Warn, false},
		{"debug at info", Debug, Info, false},
	}

	for _, tc := range cases {
		result := tc.requested.isAllowed(tc.allowed)
		assert.Equal(t, tc.output, result, fmt.Sprintf("%s: expected %t got %t", tc.desc, tc.output, result))
	}
}
