// Package config implements configuration management subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage smbcore configuration files.

Use 'smbcoresrv init' to create a new configuration file.

Subcommands:
  show  Display the effective configuration`,
}

func init() {
	Cmd.AddCommand(showCmd)
}
