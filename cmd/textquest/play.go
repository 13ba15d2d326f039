package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/nathoo/textquest/cli"
	"github.com/nathoo/textquest/config"
	"github.com/nathoo/textquest/engine"
	"github.com/nathoo/textquest/engine/rng"
	"github.com/nathoo/textquest/errutil"
	"github.com/nathoo/textquest/loader"
	"github.com/nathoo/textquest/logging"
	"github.com/nathoo/textquest/tui"
)

// NewPlayCmd creates the play subcommand.
func NewPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <world_dir>",
		Short: "Play the world in a directory of Lua scripts",
		Long: `Loads every .lua file in world_dir (game.lua first) and starts the game.
The full screen interface is used when stdout is a terminal; --plain,
--script or redirected output select the line based interface.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, args[0])
		},
	}
}

func runPlay(cmd *cobra.Command, dir string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	interactive := cfg.Script == "" && !cfg.Plain && isTerminal(cmd.OutOrStdout())
	logger, closeLog, err := newLogger(cfg, cmd.ErrOrStderr(), interactive)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	game, err := loader.Load(dir, loader.WithLogger(logger))
	if err != nil {
		errutil.LogError(logger, "loading world failed", err)
		return err
	}
	defer game.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := engine.New(game.World, engine.WithRNG(rng.New(seed)), engine.WithLogger(logger))

	if interactive {
		return tui.Run(s, tui.WithTrace(cfg.Trace))
	}

	c := cli.New(s)
	c.In = cmd.InOrStdin()
	c.Out = cmd.OutOrStdout()
	c.Trace = cfg.Trace
	if cfg.Script != "" {
		f, err := os.Open(cfg.Script)
		if err != nil {
			return oops.Code(config.CodeInvalid).With("script", cfg.Script).Wrapf(err, "opening script")
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	}
	c.Run()
	return nil
}

// newLogger writes to the configured log file, else to stderr in the
// line based interface and nowhere in the TUI.
func newLogger(cfg *config.Config, stderr io.Writer, interactive bool) (*slog.Logger, func(), error) {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, oops.Code(config.CodeInvalid).With("path", cfg.Log.File).Wrapf(err, "opening log file")
		}
		return logging.Setup(serviceName, version, cfg.Log.Format, cfg.Log.Level, f), func() { _ = f.Close() }, nil
	}
	if interactive {
		return logging.Discard(), func() {}, nil
	}
	return logging.Setup(serviceName, version, cfg.Log.Format, cfg.Log.Level, stderr), func() {}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
