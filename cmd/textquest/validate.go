package main

import (
	"github.com/spf13/cobra"

	"github.com/nathoo/textquest/config"
	"github.com/nathoo/textquest/loader"
	"github.com/nathoo/textquest/logging"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <world_dir>",
		Short: "Check a world without playing it",
		Long: `Loads and validates every .lua file in world_dir, then reports warnings.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines for world authors:
  textquest validate worlds/crypt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, dir string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger := logging.Setup(serviceName, version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())

	game, err := loader.Load(dir, loader.WithLogger(logger))
	if err != nil {
		if ve, ok := loader.AsValidationError(err); ok {
			for _, w := range ve.Warnings {
				cmd.PrintErrln("warning: " + w)
			}
		}
		return err
	}
	defer game.Close()

	for _, w := range game.Warnings {
		cmd.Println("warning: " + w)
	}
	world := game.World
	cmd.Printf("%s: ok (%d rooms)\n", world.Game.Title, len(world.Rooms))
	return nil
}
