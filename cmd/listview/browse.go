package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/listview/internal/config"
	"github.com/dshills/listview/internal/logging"
	"github.com/dshills/listview/internal/tui"
	"github.com/dshills/listview/internal/view"
)

type browseOptions struct {
	view        string
	metricsAddr string
	replay      time.Duration
	accent      string
}

func newBrowseCmd(c *cli) *cobra.Command {
	var opts browseOptions
	cmd := &cobra.Command{
		Use:   "browse FIXTURE",
		Short: "Browse a document fixture interactively",
		Long: `Browse shows the views of a document in the terminal. Tab cycles
views, the arrow keys and PgUp/PgDn scroll, and q quits.

With --replay the fixture's edit script is applied while browsing, one edit
per interval, and the affected rows update in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.browse(cmd.Context(), args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.view, "view", "v", view.Listing, "view shown first")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides the configuration)")
	f.DurationVar(&opts.replay, "replay", 0, "apply the fixture's edits, one per interval")
	f.StringVar(&opts.accent, "accent", tui.DefaultPalette.Accent, "accent colour as #rrggbb")
	return cmd
}

func (c *cli) browse(ctx context.Context, path string, opts browseOptions) error {
	// The terminal belongs to the browser; logs only go to --log-file.
	if c.logFile == "" {
		c.logger = logging.Discard()
	}

	palette := tui.DefaultPalette
	palette.Accent = opts.accent
	theme, err := tui.NewTheme(palette)
	if err != nil {
		return err
	}

	doc, edits, err := c.loadFixture(path)
	if err != nil {
		return err
	}
	set, err := c.views()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	addr := c.cfg.Metrics.Addr
	if opts.metricsAddr != "" {
		addr = opts.metricsAddr
	}
	if addr != "" {
		if _, err := serveMetrics(ctx, addr, c.logger); err != nil {
			set.Close()
			return fmt.Errorf("metrics: %w", err)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		set.Close()
		return err
	}
	if err := screen.Init(); err != nil {
		set.Close()
		return err
	}
	defer screen.Fini()

	b, err := tui.New(screen, doc, set,
		tui.WithLogger(c.logger),
		tui.WithTheme(theme),
		tui.WithColumnOptions(c.columnOptions()...),
		tui.WithInitialView(opts.view))
	if err != nil {
		return err
	}
	defer b.Close()

	if c.configPath != "" {
		w, err := config.Watch(c.configPath, c.logger, func(cfg *config.Config, err error) {
			if err != nil {
				_ = b.Post(func() { b.Notify("config: " + err.Error()) })
				return
			}
			c.reloadViews(b, cfg)
		})
		if err != nil {
			c.logger.Warn("config watch disabled", "error", err)
		} else {
			defer w.Close()
		}
	}

	if opts.replay > 0 && len(edits) > 0 {
		go func() {
			if err := b.Replay(ctx, edits, opts.replay); err != nil && ctx.Err() == nil {
				c.logger.Warn("edit replay stopped", "error", err)
			}
		}()
	}

	return b.Run(ctx)
}

// reloadViews rebuilds the views from cfg off the event loop and swaps them
// in on it.
func (c *cli) reloadViews(b *tui.Browser, cfg *config.Config) {
	set, err := view.LoadSet(cfg, c.logger)
	if err != nil {
		c.logger.Warn("views not reloaded", "error", err)
		return
	}
	err = b.Post(func() {
		if err := b.Reload(set); err != nil {
			c.logger.Warn("views not reloaded", "error", err)
			set.Close()
		}
	})
	if err != nil {
		set.Close()
	}
}
