package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"readingshelf/internal/imageproxy"
)

var coverCmd = &cobra.Command{
	Use:   "cover",
	Short: "Resolve one cover through the fallback chain",
	Long: `Run the cover fallback chain once and report which step answered.

Examples:
  shelfctl cover --url https://i.gr-assets.com/x._SY75_.jpg --title "Norwegian Wood"
  shelfctl cover --url U --title T --out cover.jpg`,
	Args: cobra.NoArgs,
	RunE: runCover,
}

func init() {
	rootCmd.AddCommand(coverCmd)

	coverCmd.Flags().String("url", "", "cover URL (required)")
	coverCmd.Flags().String("title", "", "book title, used for overrides and the placeholder")
	coverCmd.Flags().String("original", "", "raw cover URL before normalization")
	coverCmd.Flags().String("page", "", "page the cover appeared on, sent as referer")
	coverCmd.Flags().String("out", "", "write the image to this file")
	_ = coverCmd.MarkFlagRequired("url")
}

func runCover(cmd *cobra.Command, args []string) error {
	req := imageproxy.Request{}
	req.URL, _ = cmd.Flags().GetString("url")
	req.Title, _ = cmd.Flags().GetString("title")
	req.Original, _ = cmd.Flags().GetString("original")
	req.Page, _ = cmd.Flags().GetString("page")

	res, err := svc.Covers.Resolve(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("resolving cover: %w", err)
	}

	out := cmd.OutOrStdout()
	source := color.GreenString(string(res.Source))
	if res.Source == imageproxy.SourcePlaceholder {
		source = color.YellowString(string(res.Source))
	}
	fmt.Fprintf(out, "source: %s\ntype:   %s\nbytes:  %d\n", source, res.ContentType, len(res.Data))

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := os.WriteFile(path, res.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(out, "saved:  %s\n", path)
	}
	return nil
}
