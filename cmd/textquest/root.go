package main

import (
	"github.com/spf13/cobra"

	"github.com/nathoo/textquest/config"
)

const serviceName = "textquest"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the textquest CLI. Given a
// world directory and no subcommand it plays that world.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textquest [world_dir]",
		Short: "textquest - Lua scripted text adventures",
		Long: `textquest runs text adventures written as Lua scripts: rooms, items,
skills, enemies and NPCs, with turn based combat against every enemy in
the room.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runPlay(cmd, args[0])
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewPlayCmd())
	cmd.AddCommand(NewValidateCmd())

	return cmd
}
