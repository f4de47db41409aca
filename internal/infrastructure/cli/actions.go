package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

var actionsJSON bool

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Show which assist actions a note enables",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		note, err := readNoteFlag(commandContext(cmd), services)
		if err != nil {
			return err
		}

		avail := services.Assist.Actions(note)
		out := cmd.OutOrStdout()
		if actionsJSON {
			data, err := json.MarshalIndent(avail, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode actions: %w", err)
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		}

		for _, op := range ai.Operations() {
			state := "enabled"
			if !avail.Enabled(op) {
				state = "disabled"
			}
			_, _ = fmt.Fprintf(out, "%-10s %s\n", op, state)
		}
		return nil
	},
}

func init() {
	actionsCmd.Flags().StringVarP(&noteFile, "file", "f", "", "Note file, relative to the workspace root")
	actionsCmd.Flags().BoolVar(&actionsJSON, "json", false, "Print availability as JSON")
	RootCmd.AddCommand(actionsCmd)
}
