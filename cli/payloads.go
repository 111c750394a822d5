// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"

	"github.com/absmach/scadabind/mapping"
	"github.com/absmach/scadabind/normalizer"
	"github.com/spf13/cobra"
)

// NewParseCmd returns the command normalizing a JSON payload into a device.
func NewParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <payload_json>",
		Short: "Normalize a payload",
		Long: "Normalize a raw JSON payload into the device model\n" +
			"usage:\n" +
			"\tscada parse '{\"deviceId\":\"pump-1\",\"temp\":23.5}'\n" +
			"\tscada parse --preset modbus '{\"slaveId\":1,\"registers\":[{\"address\":40001,\"value\":12}]}'",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			raw, err := decodeArg(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			parser := normalizer.New()
			if Preset != "" {
				if parser, err = normalizer.Preset(Preset); err != nil {
					logErrorCmd(*cmd, err)
					return
				}
			}

			device, err := parser.Parse(raw, DeviceID, DeviceName)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, device)
		},
	}
}

// NewClassifyCmd returns the command reporting the layout of a payload.
func NewClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <payload_json>",
		Short: "Classify a payload",
		Long: "Report which supported layout a raw JSON payload matches\n" +
			"usage:\n" +
			"\tscada classify '[{\"id\":\"temp\",\"value\":1}]'",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			raw, err := decodeArg(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logValueCmd(*cmd, "shape", normalizer.Classify(raw).String())
		},
	}
}

// NewMapCmd returns the command applying a mapping rule to a value.
func NewMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <value_json> <mapping_json>",
		Short: "Apply a value mapping",
		Long: "Apply a direct, boolean, range or enum mapping to a value\n" +
			"usage:\n" +
			"\tscada map 7 '{\"type\":\"range\",\"rangeRules\":[{\"min\":0,\"max\":10,\"value\":\"A\"}]}'",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			value, err := decodeArg(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			var cfg mapping.Config
			if err := json.Unmarshal([]byte(args[1]), &cfg); err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			if err := cfg.Validate(); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, mapping.Apply(value, &cfg))
		},
	}
}
