// Package cmd provides the CLI commands for whosaid.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/whosaid/internal/config"
	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/logging"
	"github.com/Aman-CERP/whosaid/pkg/version"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	debug   bool
	cfg     *config.Config
	cleanup func()
}

// NewRootCmd creates the root command for the whosaid CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "whosaid",
		Short: "Find what a given person said in a tree of IRC logs",
		Long: `whosaid indexes a directory of chat logs by the nicknames that speak
in each file, then greps only the files where the requested people spoke.

  whosaid build -o nicks.json ~/irclogs
  whosaid query -i nicks.json 'release date' alice bob`,
		Version:           version.Short(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			a.close()
			return nil
		},
	}
	cmd.SetVersionTemplate("whosaid version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to ~/.whosaid/logs/")

	cmd.AddCommand(newBuildCmd(a))
	cmd.AddCommand(newQueryCmd(a))
	cmd.AddCommand(newNicksCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd, a
}

// setup loads configuration for the working directory and installs the
// default logger. Diagnostics go to the command's stderr.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Stderr = cmd.ErrOrStderr()
	if a.debug {
		logCfg.Level = "debug"
		logCfg.FilePath = logging.DefaultLogPath()
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return werrors.FileAccess(logCfg.FilePath, err)
	}
	a.cleanup = cleanup
	slog.SetDefault(logger)

	if a.debug {
		slog.Debug("debug logging enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Short()),
			slog.String("command", cmd.CommandPath()))
	}
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, a := newRootCmd()
	defer a.close()
	return cmd.ExecuteContext(ctx)
}
