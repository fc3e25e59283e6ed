package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoreYieldsPath(t *testing.T) {
	root := t.TempDir()
	content := []byte("document bytes")
	if err := os.WriteFile(filepath.Join(root, "doc.png"), content, 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	store, err := NewLocalStore(root)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	var got []byte
	err = store.WithLocalPath(context.Background(), "doc.png", func(path string) error {
		data, readErr := os.ReadFile(path)
		got = data
		return readErr
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Expected %q, got %q", content, got)
	}
}

func TestLocalStoreMissingFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	err = store.WithLocalPath(context.Background(), "nope.png", func(string) error { return nil })
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLocalStoreTraversalStaysInRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	// Parent references are cleaned away, so the ref resolves inside the
	// root and simply does not exist.
	err = store.WithLocalPath(context.Background(), "../../etc/passwd", func(path string) error {
		t.Errorf("Callback should not run, got path %q", path)
		return nil
	})
	if err == nil {
		t.Fatal("Expected error for traversal attempt")
	}
}

func TestLocalStoreEmptyRef(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.WithLocalPath(context.Background(), "", func(string) error { return nil }); err == nil {
		t.Fatal("Expected error for empty ref")
	}
}

func TestNewLocalStoreRejectsMissingRoot(t *testing.T) {
	if _, err := NewLocalStore("/definitely/not/a/dir"); err == nil {
		t.Fatal("Expected error for nonexistent root")
	}
}
