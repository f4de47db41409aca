package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

const NotewiseDir = ".notewise"
const AssistConfigFile = "assist.yaml"
const HistoryFile = "history.jsonl"

// ErrNoteNotFound is returned by ReadNote when the file does not exist.
var ErrNoteNotFound = errors.New("note not found")

// ErrOutsideWorkspace is returned by ResolveNotePath for paths that leave the root.
var ErrOutsideWorkspace = errors.New("note path is outside the workspace")

// maxNoteSize bounds how much of a note file is read into memory.
const maxNoteSize = 4 << 20

// Workspace is the on-disk home of notewise: the .notewise directory under
// root plus the note files the user points at.
type Workspace struct {
	root        string
	retryConfig retry.Config
}

func NewWorkspace(root string) *Workspace {
	return &Workspace{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// ResolvePath returns the path of filename inside the .notewise directory.
func (w *Workspace) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(w.root, NotewiseDir)
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (w *Workspace) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Join(w.root, NotewiseDir), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", NotewiseDir, err)
	}
	return nil
}

func (w *Workspace) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(w.root, NotewiseDir))
	return err == nil
}

// ReadNote loads a note file. Relative paths resolve against the root.
// Read failures after the file was found are retried.
func (w *Workspace) ReadNote(ctx context.Context, path string) (string, error) {
	full := w.NotePath(path)

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNoteNotFound, path)
		}
		return "", fmt.Errorf("failed to stat note: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("note path is a directory: %s", path)
	}
	if info.Size() > maxNoteSize {
		return "", fmt.Errorf("note %s is larger than %d bytes", path, maxNoteSize)
	}

	retryer := retry.New[string](w.retryConfig)
	return retryer.Do(ctx, func(ctx context.Context) (string, error) {
		// #nosec G304 -- note paths are chosen by the local user
		data, err := os.ReadFile(full)
		if err != nil {
			return "", fmt.Errorf("failed to read note: %w", err)
		}
		return string(data), nil
	})
}

// WriteNote replaces the note file content, keeping a trailing newline.
func (w *Workspace) WriteNote(path, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	// G306: Use 0600 for files
	if err := os.WriteFile(w.NotePath(path), []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}
	return nil
}

// NotePath resolves a note path against the workspace root. Absolute paths
// are kept as given; use ResolveNotePath for paths from remote callers.
func (w *Workspace) NotePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(w.root, path)
}

// ResolveNotePath resolves a note path that must stay inside the workspace.
// Absolute paths, ".." escapes and symlinks leading out of the root are
// rejected with ErrOutsideWorkspace.
func (w *Workspace) ResolveNotePath(path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	full := filepath.Join(w.root, path)

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		if os.IsNotExist(err) {
			// ReadNote reports the missing note.
			return full, nil
		}
		return "", fmt.Errorf("failed to resolve note path: %w", err)
	}
	root, err := filepath.EvalSymlinks(w.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	return full, nil
}
