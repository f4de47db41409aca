package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	projectPath  string
	configPath   string
	fallbackFlag bool
	verboseFlag  bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "notewise",
	Version: Version,
	Short:   "Writing assistance for plain-text notes",
	Long: `Notewise sends a note to an OpenAI-compatible chat completion service and
prints note-ready text. It can:
  generate   write new text from a prompt
  summarize  condense a note of at least 100 words
  enhance    rewrite a note for clarity
  proofread  fix spelling and grammar
  extend     continue a note in the same voice`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

// setupLogger sends structured logs to stderr so stdout stays note text.
func setupLogger() {
	level := slog.LevelWarn
	if verboseFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func init() {
	RootCmd.PersistentFlags().StringVar(&projectPath, "project", "", "Workspace root (defaults to the current directory)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (defaults to .notewise/assist.yaml)")
	RootCmd.PersistentFlags().BoolVar(&fallbackFlag, "fallback", false, "Return placeholder text when the completion service fails")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}
