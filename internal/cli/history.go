package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously produced previews, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(configDir, true)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.history.ListEntries(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %s  %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Kind, e.URL)
			for _, l := range e.Lines {
				fmt.Fprintf(out, "    %s\n", l)
			}
		}
		return nil
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <url>",
	Short: "Remove a URL from the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(configDir, true)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.history.DeleteEntry(cmd.Context(), args[0])
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show (0 = all)")
	historyCmd.AddCommand(historyRmCmd)
	rootCmd.AddCommand(historyCmd)
}
