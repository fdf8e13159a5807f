// Package cmd wires the rollup command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nconklindev/rollup/internal/cache"
	"github.com/nconklindev/rollup/internal/config"
	"github.com/nconklindev/rollup/internal/logging"
	"github.com/nconklindev/rollup/internal/pipeline"
	"github.com/nconklindev/rollup/internal/sheet"
	"github.com/nconklindev/rollup/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// BuildInfo is stamped in at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func (a *app) setupLogger(out logging.Output) error {
	logger, closer, err := logging.New(a.cfg.Logging, out)
	if err != nil {
		return err
	}
	a.logger, a.closer = logger, closer
	return nil
}

// close releases the log file. Commands defer it right after setupLogger;
// cobra skips post-run hooks when RunE fails.
func (a *app) close() {
	if a.closer != nil {
		a.closer.Close()
		a.closer = nil
	}
}

func (a *app) readerOptions() sheet.Options {
	return sheet.Options{
		SearchLimit:   a.cfg.Reader.SearchLimit,
		MaxHeaderRows: a.cfg.Reader.MaxHeaderRows,
	}
}

func (a *app) pipeline(ratio float64) *pipeline.Pipeline {
	return pipeline.New(a.readerOptions(), ratio, a.logger)
}

func (a *app) cache() *cache.Store {
	return cache.New(a.cfg.Cache.Dir)
}

// NewRootCmd builds the command tree. With no subcommand it starts the TUI.
func NewRootCmd(info BuildInfo) *cobra.Command {
	return newRootCmd(info, &app{})
}

func newRootCmd(info BuildInfo, a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "rollup",
		Short: "Attendance and assessment reports from platform spreadsheet exports",
		Long: `rollup reads a class roster plus per-track attendance/assessment workbooks,
reconciles students across them and reports sessions attended and tests appeared.

Run without arguments for the interactive picker, or use the subcommands for
scripted runs.`,
		Version:       fmt.Sprintf("%s\ncommit: %s\nbuilt: %s", info.Version, info.Commit, info.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}
	root.SetVersionTemplate("rollup {{.Version}}\n")

	root.AddCommand(
		newProcessCmd(a),
		newAptitudeCmd(a),
		newCacheCmd(a),
	)
	return root
}

func (a *app) runTUI() error {
	if err := a.setupLogger(logging.ToFile); err != nil {
		return err
	}
	defer a.close()

	m := ui.InitialModel(ui.Deps{
		Pipeline:  a.pipeline(a.cfg.Attendance.ThresholdRatio),
		Cache:     a.cache(),
		OutputDir: a.cfg.Output.Dir,
		Logger:    a.logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Execute runs the CLI and returns the process exit code.
func Execute(info BuildInfo) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd(info).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
