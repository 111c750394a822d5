// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/absmach/scadabind"
	"github.com/spf13/cobra"
)

// NewVersionCmd returns version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Long:  "Print the version, commit and build time of this binary",
		Run: func(cmd *cobra.Command, args []string) {
			logJSONCmd(*cmd, map[string]string{
				"version":    scadabind.Version,
				"commit":     scadabind.Commit,
				"build_time": scadabind.BuildTime,
			})
		},
	}
}
