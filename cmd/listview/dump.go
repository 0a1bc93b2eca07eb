package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/listview/internal/export"
	"github.com/dshills/listview/internal/view"
)

type dumpOptions struct {
	view     string
	format   string
	indent   bool
	maxWidth int
	edits    bool
}

func newDumpCmd(c *cli) *cobra.Command {
	var opts dumpOptions
	cmd := &cobra.Command{
		Use:   "dump FIXTURE",
		Short: "Print a view of a document fixture",
		Example: `  listview dump testdata/sample.yaml --view functions
  listview dump testdata/sample.yaml --view strings --format json --indent`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.dump(cmd, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.view, "view", "v", view.Listing, "view to print")
	f.StringVarP(&opts.format, "format", "f", string(export.FormatText), "output format (text or json)")
	f.BoolVar(&opts.indent, "indent", false, "pretty-print JSON output")
	f.IntVar(&opts.maxWidth, "max-width", 0, "truncate text cells to this many columns (0 = no limit)")
	f.BoolVar(&opts.edits, "apply-edits", false, "apply the fixture's edit script before printing")
	return cmd
}

func (c *cli) dump(cmd *cobra.Command, path string, opts dumpOptions) error {
	format, err := export.ParseFormat(opts.format)
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
	defer set.Close()
	v, err := set.Get(opts.view)
	if err != nil {
		return err
	}

	m := view.NewModel(v, view.WithLogger(c.logger), view.WithColumnOptions(c.columnOptions()...))
	if err := m.Attach(doc); err != nil {
		return err
	}
	defer m.Detach()

	if opts.edits {
		for _, e := range edits {
			if err := doc.Apply(cmd.Context(), e); err != nil {
				c.logger.Warn("edit failed", "edit", e.String(), "error", err)
			}
		}
	}

	out := cmd.OutOrStdout()
	if format == export.FormatJSON {
		var jopts []export.JSONOption
		if opts.indent {
			jopts = append(jopts, export.WithIndent())
		}
		return export.JSON(out, m, jopts...)
	}
	return export.Text(out, m,
		export.WithHeaderStyle(headerStyle(out)),
		export.WithMaxCellWidth(opts.maxWidth))
}
