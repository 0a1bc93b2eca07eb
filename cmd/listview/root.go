package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/listview/internal/column"
	"github.com/dshills/listview/internal/config"
	"github.com/dshills/listview/internal/document"
	"github.com/dshills/listview/internal/logging"
	"github.com/dshills/listview/internal/ordinals"
	"github.com/dshills/listview/internal/view"
)

// cli holds the state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	logFile    string

	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "listview",
		Short: "Sorted, filtered listing views over a disassembly document",
		Long: `listview builds incremental listing views (all items, segments,
functions, imports, strings and any views declared in the configuration)
over a document and keeps them in sync as the document is edited.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.setup(cmd) },
		PersistentPostRun: func(*cobra.Command, []string) { c.teardown() },
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "path to the TOML configuration file")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the configuration")
	flags.StringVar(&c.logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(
		newViewsCmd(c),
		newDumpCmd(c),
		newBrowseCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = c.logLevel
	}
	level, ok := logging.ParseLevel(cfg.Logging.Level)
	if !ok {
		return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	out := c.stderr
	noColor := true
	if f, isFile := out.(*os.File); isFile {
		noColor = !isTerminal(f)
	}
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		c.closers = append(c.closers, f)
		out, noColor = f, true
	}

	c.cfg = cfg
	c.logger = logging.New(logging.Options{Level: level, Output: out, NoColor: noColor})
	c.logger.Debug("configuration loaded", "path", c.configPath, "views", len(cfg.Views))
	return nil
}

func (c *cli) teardown() {
	for _, cl := range c.closers {
		_ = cl.Close()
	}
	c.closers = nil
}

// views builds the built-in and configured views.
func (c *cli) views() (*view.Set, error) {
	return view.LoadSet(c.cfg, c.logger)
}

func (c *cli) columnOptions() []column.Option {
	return []column.Option{
		column.WithAddressWidth(c.cfg.Columns.AddressWidth),
		column.WithUnknownSegment(c.cfg.Columns.UnknownSegment),
		column.WithOrdinals(ordinals.New(
			ordinals.WithDir(c.cfg.Ordinals.Dir),
			ordinals.WithLogger(c.logger),
		)),
	}
}

// loadFixture reads a YAML document fixture and its edit script.
func (c *cli) loadFixture(path string) (*document.Document, []document.Edit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fx, err := document.ParseFixture(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	doc, err := fx.Build(document.WithLogger(c.logger))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	edits, err := fx.Edits()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	c.logger.Debug("fixture loaded", "path", path, "items", doc.ItemCount(), "edits", len(edits))
	return doc, edits, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
