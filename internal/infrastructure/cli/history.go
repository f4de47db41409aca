package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notewise/pkg/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent assist interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return fmt.Errorf("resolve project path: %w", err)
		}
		store, err := storage.NewHistoryStore(storage.NewWorkspace(root))
		if err != nil {
			return err
		}
		entries, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(out, "No assist history yet.")
			return nil
		}
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[len(entries)-historyLimit:]
		}
		for _, e := range entries {
			outcome := e.Source
			if e.ErrorKind != "" {
				outcome = e.ErrorKind
			}
			_, _ = fmt.Fprintf(out, "%s  %-10s %-15s %6dms  %s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Operation, outcome, e.DurationMs, e.Model)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	RootCmd.AddCommand(historyCmd)
}
