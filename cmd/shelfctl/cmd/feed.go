package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"readingshelf/internal/shelf"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Fetch the feed and print the shelf",
	Long: `Fetch the configured feed once and print both shelf lists.

Examples:
  shelfctl feed          # Table output
  shelfctl feed --json   # Same payload the API serves`,
	Args: cobra.NoArgs,
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().Bool("json", false, "output as JSON")
}

func runFeed(cmd *cobra.Command, args []string) error {
	s, err := svc.Shelf.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	bold := color.New(color.Bold)
	bold.Fprintf(out, "Currently reading (%d)\n", len(s.CurrentlyReading))
	renderEntries(out, s.CurrentlyReading)
	fmt.Fprintln(out)
	bold.Fprintf(out, "Recently read (%d)\n", len(s.RecentlyRead))
	renderEntries(out, s.RecentlyRead)
	return nil
}

func renderEntries(w io.Writer, entries []shelf.Entry) {
	if len(entries) == 0 {
		color.New(color.Faint).Fprintln(w, "  (none)")
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Title,
			e.Author,
			detail(e),
			coverState(e),
		})
	}

	table := newTable(w)
	table.Header([]string{"TITLE", "AUTHOR", "PROGRESS/RATING", "COVER"})
	table.Bulk(rows)
	table.Render()
}

func detail(e shelf.Entry) string {
	if e.Kind == shelf.KindFinished {
		if e.Rating == 0 {
			return "-"
		}
		return strings.Repeat("★", e.Rating) + " (" + strconv.Itoa(e.Rating) + "/5)"
	}
	if e.Progress == "" {
		return "-"
	}
	return e.Progress
}

func coverState(e shelf.Entry) string {
	if e.CoverURLNormalized == "" {
		return color.YellowString("missing")
	}
	return color.GreenString("yes")
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)
}
