package main

import (
	"bytes"
	"os"
	"testing"
)

func TestRun_Help(t *testing.T) {
	old := os.Args
	defer func() { os.Args = old }()

	os.Args = []string{"notewise", "--help"}
	var stderr bytes.Buffer
	if code := run(&stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
}

func TestRun_ValidationHint(t *testing.T) {
	old := os.Args
	defer func() { os.Args = old }()
	t.Chdir(t.TempDir())

	os.Args = []string{"notewise", "generate", "--prompt", "   "}
	var stderr bytes.Buffer
	if code := run(&stderr); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !bytes.Contains(stderr.Bytes(), []byte("Hint: Pass --prompt")) {
		t.Errorf("expected hint, got %q", stderr.String())
	}
}
