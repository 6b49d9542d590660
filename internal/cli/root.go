// Package cli implements the unfurl command line using Cobra.
package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"unfurl/internal/sink"
	"unfurl/internal/unfurl"
)

var (
	configDir string
	verbose   bool

	flagFile string
	flagLine int
	flagMeta bool
)

var rootCmd = &cobra.Command{
	Use:   "unfurl <url>",
	Short: "Unfurl a URL into a Markdown preview",
	Long: `unfurl fetches a page (or a post's oEmbed payload), reads its preview
metadata and prints it as Markdown quote lines.

Examples:
  unfurl https://example.com/article
  unfurl https://x.com/user/status/123
  unfurl https://example.com --file notes.md --line 12`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runUnfurl,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./configs", "directory containing config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Flags().StringVarP(&flagFile, "file", "f", "", "insert the preview into this file instead of printing it")
	rootCmd.Flags().IntVarP(&flagLine, "line", "l", sink.AppendEnd, "insert after this line of --file (0 = top, -1 = end)")
	rootCmd.Flags().BoolVar(&flagMeta, "meta", false, "print the extracted metadata as JSON")
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func runUnfurl(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	if !unfurl.ValidURL(rawURL) {
		return &unfurl.InvalidURLError{URL: rawURL}
	}

	a, err := newApp(configDir, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if a.cfg.Unfurl.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Unfurl.Timeout)
		defer cancel()
	}

	if flagMeta {
		m, err := a.service.Metadata(ctx, rawURL)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Kind string `json:"type"`
			Data any    `json:"data"`
		}{string(m.Kind()), m})
	}

	lines, err := a.service.Unfurl(ctx, rawURL)
	if err != nil {
		return err
	}

	var out sink.Sink = sink.NewWriter(cmd.OutOrStdout(), a.log)
	if flagFile != "" {
		out = sink.NewFile(flagFile, flagLine, a.log)
	}
	return out.Write(ctx, lines)
}

// ExitOnError prints err and exits non-zero when err is set.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	rootCmd.PrintErrln("Error:", err)
	os.Exit(1)
}
