// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main contains the offline payload tooling entry point.
package main

import (
	"log"

	"github.com/absmach/scadabind/cli"
	"github.com/spf13/cobra"
)

func main() {
	// Root
	var rootCmd = &cobra.Command{
		Use:   "scada",
		Short: "Offline tools for SCADA payloads",
	}

	// Payload commands
	parseCmd := cli.NewParseCmd()
	classifyCmd := cli.NewClassifyCmd()
	mapCmd := cli.NewMapCmd()
	sourcesCmd := cli.NewSourcesCmd()
	versionCmd := cli.NewVersionCmd()

	// Root Commands
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(versionCmd)

	// Root Flags
	rootCmd.PersistentFlags().BoolVarP(
		&cli.RawOutput,
		"raw",
		"r",
		false,
		"Enables raw output mode for easier parsing of output",
	)

	// Parse Flags
	parseCmd.Flags().StringVarP(
		&cli.DeviceID,
		"id",
		"i",
		"",
		"device id used when the payload carries none",
	)

	parseCmd.Flags().StringVarP(
		&cli.DeviceName,
		"name",
		"n",
		"",
		"device name used when the payload carries none",
	)

	parseCmd.Flags().StringVarP(
		&cli.Preset,
		"preset",
		"p",
		"",
		"custom parser preset (iotPlatform, modbus, opcua)",
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
