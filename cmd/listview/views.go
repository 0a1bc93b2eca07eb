package main

import (
	"io"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"

	"github.com/dshills/listview/internal/column"
	"github.com/dshills/listview/internal/export"
	"github.com/dshills/listview/internal/index"
)

func newViewsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the available views and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := c.views()
			if err != nil {
				return err
			}
			defer set.Close()

			rows := [][]string{{"View", "Filter", "Columns"}}
			for _, v := range set.All() {
				rows = append(rows, []string{v.Name, index.Describe(v.Predicate), columnNames(v.Columns)})
			}
			return writeTable(cmd.OutOrStdout(), rows)
		},
	}
}

func columnNames(ids []column.ID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ",")
}

// writeTable prints rows as aligned columns with a styled first row.
func writeTable(w io.Writer, rows [][]string) error {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row[:len(row)-1] {
			widths[i] = max(widths[i], uniseg.StringWidth(cell))
		}
	}
	style := headerStyle(w)
	for r, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			if i < len(row)-1 {
				cell = export.Pad(cell, widths[i]+2)
			}
			b.WriteString(cell)
		}
		line := strings.TrimRight(b.String(), " ")
		if r == 0 {
			line = style(line)
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
