// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/absmach/scadabind/sources"
	"github.com/spf13/cobra"
)

// NewSourcesCmd returns the command validating a data sources file.
func NewSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources <file_path>",
		Short: "Validate a data sources file",
		Long: "Load a TOML data sources file, validate every source and print them\n" +
			"usage:\n" +
			"\tscada sources sources.toml",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			file, err := sources.LoadFile(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			for _, ds := range file.Sources {
				if err := ds.Validate(); err != nil {
					logErrorCmd(*cmd, err)
					return
				}
			}

			logJSONCmd(*cmd, file.Sources)
		},
	}
}
