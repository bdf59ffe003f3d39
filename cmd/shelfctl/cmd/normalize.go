package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"readingshelf/internal/coverurl"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <url>...",
	Short: "Print normalized cover URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, raw := range args {
			normalized := coverurl.Normalize(raw)
			if normalized == raw {
				fmt.Fprintf(out, "%s\t%s\n", normalized, color.New(color.Faint).Sprint("(unchanged)"))
				continue
			}
			fmt.Fprintln(out, normalized)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}
