// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli_test

import (
	"bytes"
	"testing"

	"github.com/absmach/scadabind/cli"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

type outputLog uint8

const (
	usageLog outputLog = iota
	errLog
	entityLog
	valueLog
)

func executeCommand(t *testing.T, root *cobra.Command, args ...string) string {
	buffer := new(bytes.Buffer)
	root.SetOut(buffer)
	root.SetErr(buffer)
	root.SetArgs(args)
	err := root.Execute()
	assert.NoError(t, err, "Error executing command")
	return buffer.String()
}

func newRootCmd(cmds ...*cobra.Command) *cobra.Command {
	rootCmd := &cobra.Command{Use: "scada"}
	cli.DeviceID, cli.DeviceName, cli.Preset, cli.RawOutput = "", "", "", true

	rootCmd.PersistentFlags().BoolVarP(
		&cli.RawOutput,
		"raw",
		"r",
		true,
		"Enables raw output mode for easier parsing of output",
	)
	rootCmd.PersistentFlags().StringVarP(&cli.DeviceID, "id", "i", "", "Fallback device id")
	rootCmd.PersistentFlags().StringVarP(&cli.DeviceName, "name", "n", "", "Fallback device name")
	rootCmd.PersistentFlags().StringVarP(&cli.Preset, "preset", "p", "", "Custom parser preset")
	rootCmd.AddCommand(cmds...)

	return rootCmd
}
