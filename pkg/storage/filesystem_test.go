package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

func setupWorkspace(t *testing.T) *Workspace {
	t.Helper()
	w := NewWorkspace(t.TempDir())
	if err := w.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return w
}

func TestRoot(t *testing.T) {
	dir := t.TempDir()
	if got := NewWorkspace(dir).Root(); got != dir {
		t.Errorf("Root() = %q, want %q", got, dir)
	}
}

func TestInitialize(t *testing.T) {
	w := NewWorkspace(t.TempDir())
	if w.IsInitialized() {
		t.Fatal("fresh workspace should not be initialized")
	}
	if err := w.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !w.IsInitialized() {
		t.Fatal("expected initialized workspace")
	}
}

func TestResolvePath(t *testing.T) {
	w := NewWorkspace("/tmp/notes")

	got, err := w.ResolvePath(AssistConfigFile)
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if got != filepath.Join("/tmp/notes", NotewiseDir, AssistConfigFile) {
		t.Errorf("unexpected path %q", got)
	}

	for _, bad := range []string{"", "../escape.yaml", "nested/file.yaml"} {
		if _, err := w.ResolvePath(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestReadWriteNote(t *testing.T) {
	w := setupWorkspace(t)

	if err := w.WriteNote("todo.md", "# Todo\n\n- milk"); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	got, err := w.ReadNote(context.Background(), "todo.md")
	if err != nil {
		t.Fatalf("ReadNote: %v", err)
	}
	if got != "# Todo\n\n- milk\n" {
		t.Errorf("unexpected note %q", got)
	}

	abs := filepath.Join(w.Root(), "todo.md")
	if got, err := w.ReadNote(context.Background(), abs); err != nil || !strings.HasPrefix(got, "# Todo") {
		t.Errorf("absolute read = %q, %v", got, err)
	}
}

func TestResolveNotePath(t *testing.T) {
	w := setupWorkspace(t)
	if err := os.MkdirAll(filepath.Join(w.Root(), "notes"), 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	for _, ok := range []string{"a.md", "notes/a.md", "notes/../a.md", "missing.md"} {
		got, err := w.ResolveNotePath(ok)
		if err != nil {
			t.Errorf("ResolveNotePath(%q): %v", ok, err)
			continue
		}
		if want := filepath.Join(w.Root(), ok); got != want {
			t.Errorf("ResolveNotePath(%q) = %q, want %q", ok, got, want)
		}
	}

	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	rel, err := filepath.Rel(w.Root(), secret)
	if err != nil {
		t.Fatalf("rel: %v", err)
	}
	if err := os.Symlink(secret, filepath.Join(w.Root(), "link.md")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	for _, bad := range []string{secret, rel, "../x.md", "", "link.md"} {
		if _, err := w.ResolveNotePath(bad); !errors.Is(err, ErrOutsideWorkspace) {
			t.Errorf("ResolveNotePath(%q) = %v, want ErrOutsideWorkspace", bad, err)
		}
	}
}

func TestReadNote_Errors(t *testing.T) {
	w := setupWorkspace(t)

	if _, err := w.ReadNote(context.Background(), "missing.md"); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
	if _, err := w.ReadNote(context.Background(), NotewiseDir); err == nil {
		t.Error("expected directory error")
	}

	big := filepath.Join(w.Root(), "big.md")
	if err := os.WriteFile(big, make([]byte, maxNoteSize+1), 0600); err != nil {
		t.Fatalf("write big note: %v", err)
	}
	if _, err := w.ReadNote(context.Background(), "big.md"); err == nil {
		t.Error("expected size error")
	}
}

func TestHistoryStore(t *testing.T) {
	w := NewWorkspace(t.TempDir())
	store, err := NewHistoryStore(w)
	if err != nil {
		t.Fatalf("NewHistoryStore: %v", err)
	}

	entries, err := store.Load()
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty history, got %v, %v", entries, err)
	}

	if err := store.Append(&HistoryEntry{Operation: "summarize", Source: "remote", DurationMs: 12}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(&HistoryEntry{Operation: "extend", ErrorKind: "network_error"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err = store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID == "" || entries[0].Timestamp.IsZero() {
		t.Errorf("expected id and timestamp to be set: %+v", entries[0])
	}
	if entries[1].Operation != "extend" || entries[1].ErrorKind != "network_error" {
		t.Errorf("unexpected entry %+v", entries[1])
	}
}

func TestHistoryStore_CorruptLine(t *testing.T) {
	w := setupWorkspace(t)
	path, _ := w.ResolvePath(HistoryFile)
	if err := os.WriteFile(path, []byte("{not json}\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, _ := NewHistoryStore(w)
	if _, err := store.Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestHistoryStore_RecordInteraction(t *testing.T) {
	store, err := NewHistoryStore(NewWorkspace(t.TempDir()))
	if err != nil {
		t.Fatalf("NewHistoryStore: %v", err)
	}

	var _ ai.InteractionRecorder = store
	if err := store.RecordInteraction(ai.InteractionRecord{
		Operation: ai.OpSummarize,
		Provider:  "chat:m",
		Source:    ai.SourceFallback,
		Duration:  1500 * time.Millisecond,
	}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if err := store.RecordInteraction(ai.InteractionRecord{Operation: ai.OpExtend, Kind: ai.KindServer}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Source != "fallback" || entries[0].DurationMs != 1500 || entries[0].ErrorKind != "" {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[1].ErrorKind != "server_error" {
		t.Errorf("unexpected second entry %+v", entries[1])
	}
}
