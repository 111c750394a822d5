// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/absmach/scadabind/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fatalMsgEnv  = "SCADA_LOGGER_TEST_MSG"
	fatalFlagEnv = "SCADA_LOGGER_TEST_FATAL"
)

type writer struct {
	value []byte
}

func (w *writer) Write(p []byte) (int, error) {
	w.value = append([]byte{}, p...)
	return len(p), nil
}

func (w *writer) read() (logMsg, error) {
	var out logMsg
	if len(w.value) == 0 {
		return out, nil
	}
	err := json.Unmarshal(w.value, &out)
	return out, err
}

type logMsg struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Fatal   string `json:"fatal,omitempty"`
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := logger.New(&writer{}, "verbose")
	assert.NotNil(t, err, "expected error for unknown level")
}

func TestLevels(t *testing.T) {
	cases := []struct {
		desc   string
		level  string
		log    func(l logger.Logger, msg string)
		input  string
		output logMsg
	}{
		{
			desc:   "debug at debug level",
			level:  logger.Debug.String(),
			log:    logger.Logger.Debug,
			input:  "source connected",
			output: logMsg{Level: "debug", Message: "source connected"},
		},
		{
			desc:   "debug suppressed at info level",
			level:  logger.Info.String(),
			log:    logger.Logger.Debug,
			input:  "source connected",
			output: logMsg{},
		},
		{
			desc:   "info at info level",
			level:  logger.Info.String(),
			log:    logger.Logger.Info,
			input:  "",
			output: logMsg{Level: "info"},
		},
		{
			desc:   "warn at info level",
			level:  logger.Info.String(),
			log:    logger.Logger.Warn,
			input:  "unrecognized payload",
			output: logMsg{Level: "warn", Message: "unrecognized payload"},
		},
		{
			desc:   "warn suppressed at error level",
			level:  logger.Error.String(),
			log:    logger.Logger.Warn,
			input:  "unrecognized payload",
			output: logMsg{},
		},
		{
			desc:   "error at error level",
			level:  logger.Error.String(),
			log:    logger.Logger.Error,
			input:  "dial failed",
			output: logMsg{Level: "error", Message: "dial failed"},
		},
	}

	for _, tc := range cases {
		w := writer{}
		l, err := logger.New(&w, tc.level)
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		tc.log(l, tc.input)
		out, err := w.read()
		assert.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.output, out, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.output, out))
	}
}

func TestFatal(t *testing.T) {
	// Executed inside the subprocess spawned below.
	if os.Getenv(fatalFlagEnv) == "1" {
		l, err := logger.New(os.Stderr, logger.Error.String())
		require.Nil(t, err)
		l.Fatal(os.Getenv(fatalMsgEnv))
		return
	}

	cases := []struct {
		desc   string
		input  string
		output logMsg
	}{
		{"fatal with message", "broker unreachable", logMsg{Fatal: "broker unreachable"}},
		{"fatal with empty message", "", logMsg{}},
	}

	for _, tc := range cases {
		w := writer{}
		cmd := exec.Command(os.Args[0], "-test.run=TestFatal")
		cmd.Env = append(os.Environ(), fatalFlagEnv+"=1", fmt.Sprintf("%s=%s", fatalMsgEnv, tc.input))
		cmd.Stderr = &w
		err := cmd.Run()
		e, ok := err.(*exec.ExitError)
		require.True(t, ok, fmt.Sprintf("%s: subprocess ran successfully, want non-zero exit status", tc.desc))
		assert.Equal(t, 1, e.ExitCode(), fmt.Sprintf("%s: expected exit code 1 got %d", tc.desc, e.ExitCode()))
		out, err := w.read()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.output, out, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.output, out))
	}
}
