package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notewise/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

var (
	noteFile    string
	promptText  string
	applyResult bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write new text from a prompt",
	Long: `Write new text from --prompt. When --file is given the note is sent as
context, and --apply appends the result to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd, ai.OpGenerate)
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a note of at least 100 words",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd, ai.OpSummarize)
	},
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Rewrite a note for clarity and structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd, ai.OpEnhance)
	},
}

var proofreadCmd = &cobra.Command{
	Use:   "proofread",
	Short: "Fix spelling, grammar and punctuation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd, ai.OpProofread)
	},
}

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Continue a note in the same voice",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd, ai.OpExtend)
	},
}

// runAssist runs one interaction and prints the text, or writes it back to
// the note with --apply. Ctrl+C tears the interaction down.
func runAssist(cmd *cobra.Command, op ai.Operation) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	note, err := readNoteFlag(ctx, services)
	if err != nil {
		return err
	}

	res, err := services.Assist.Run(ctx, op, note, promptText)
	if err != nil {
		return MapError(err)
	}

	if res.Source == ai.SourceFallback {
		fmt.Fprintln(cmd.ErrOrStderr(), "Note: the completion service failed; showing placeholder text.")
	}

	if applyResult {
		if noteFile == "" {
			return NewCLIError("--apply needs a note", "Pass the note with --file", nil)
		}
		updated := applyToNote(op, note, res.Text)
		if err := services.Workspace.Store.WriteNote(noteFile, updated); err != nil {
			return fmt.Errorf("failed to update note: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", noteFile, op)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	return nil
}

// applyToNote merges generated text into the note. Rewrites replace the note;
// everything else is appended after a blank line.
func applyToNote(op ai.Operation, note, text string) string {
	switch op {
	case ai.OpEnhance, ai.OpProofread:
		return text
	}
	note = strings.TrimRight(note, "\n")
	if strings.TrimSpace(note) == "" {
		return text
	}
	return note + "\n\n" + text
}

func readNoteFlag(ctx context.Context, services *wiring.AppServices) (string, error) {
	if noteFile == "" {
		return "", nil
	}
	note, err := services.Workspace.Store.ReadNote(ctx, noteFile)
	if err != nil {
		return "", MapError(err)
	}
	return note, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	generateCmd.Flags().StringVarP(&promptText, "prompt", "p", "", "What to write")
	for _, c := range []*cobra.Command{generateCmd, summarizeCmd, enhanceCmd, proofreadCmd, extendCmd} {
		c.Flags().StringVarP(&noteFile, "file", "f", "", "Note file, relative to the workspace root")
		c.Flags().BoolVar(&applyResult, "apply", false, "Write the result back to the note file")
		RootCmd.AddCommand(c)
	}
}
