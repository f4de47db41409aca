package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notewise/internal/infrastructure/watch"
	"github.com/felixgeelhaar/notewise/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

var watchRun string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a note and react to every save",
	Long: `Follow a note file. After each save the available actions are printed;
with --run the action also runs on the saved text. Every save starts a new
interaction, so a slow response for an old save never lands after a newer one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if noteFile == "" {
			return NewCLIError("--file is required", "Pass the note to follow with --file", nil)
		}
		var op ai.Operation
		if watchRun != "" {
			parsed, ok := ai.ParseOperation(watchRun)
			if !ok {
				return NewCLIError(fmt.Sprintf("unknown action %q", watchRun), "Use generate, summarize, enhance, proofread or extend", nil)
			}
			op = parsed
		}

		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := &noteReactor{services: services, op: op, out: cmd.OutOrStdout()}
		r.react(ctx)

		w, err := watch.NewNoteWatcher(services.Workspace.Store.NotePath(noteFile), watch.DefaultQuiet, func(string) {
			r.react(ctx)
		})
		if err != nil {
			return err
		}
		err = w.Run(ctx)
		r.cancelPending()
		r.wg.Wait()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// noteReactor handles one save at a time. A new save cancels the request
// started for the previous one.
type noteReactor struct {
	services *wiring.AppServices
	op       ai.Operation
	out      io.Writer

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (r *noteReactor) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *noteReactor) react(ctx context.Context) {
	note, err := r.services.Workspace.Store.ReadNote(ctx, noteFile)
	if err != nil {
		r.printf("! %v\n", MapError(err))
		return
	}

	avail := r.services.Assist.Actions(note)
	var enabled []string
	for _, op := range ai.Operations() {
		if avail.Enabled(op) {
			enabled = append(enabled, string(op))
		}
	}
	r.printf("%s: %d words, actions: %s\n", noteFile, ai.NewNote(note).WordCount(), strings.Join(enabled, ", "))

	if r.op == "" {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		res, err := r.services.Assist.Run(runCtx, r.op, note, "")
		if runCtx.Err() != nil {
			return
		}
		if err != nil {
			r.printf("! %v\n", MapError(err))
			return
		}
		r.printf("--- %s (%s)\n%s\n", res.Operation, res.Source, res.Text)
	}()
}

func (r *noteReactor) cancelPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func init() {
	watchCmd.Flags().StringVarP(&noteFile, "file", "f", "", "Note file, relative to the workspace root")
	watchCmd.Flags().StringVar(&watchRun, "run", "", "Action to run after each save")
	RootCmd.AddCommand(watchCmd)
}
