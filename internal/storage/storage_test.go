package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndPublicURL(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, "http://localhost:8081/")

	rel := "user-1/proofs/1_receipt.png"
	if err := s.Save(rel, strings.NewReader("fake-image-bytes")); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "user-1", "proofs", "1_receipt.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "fake-image-bytes" {
		t.Errorf("content: got %q", data)
	}

	url := s.PublicURL(rel)
	if url != "http://localhost:8081/uploads/user-1/proofs/1_receipt.png" {
		t.Errorf("url: got %q", url)
	}
}

func TestSaveRejectsPathEscape(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, "http://localhost:8081")

	for _, rel := range []string{"../outside.txt", "a/../../outside.txt", ""} {
		if err := s.Save(rel, strings.NewReader("x")); err == nil {
			t.Errorf("save %q: expected error", rel)
		}
	}
}

func TestCleanRelNormalizesTraversal(t *testing.T) {
	// Traversal segments collapse; the URL never points above the uploads root.
	got := cleanRel("/a/b/../c.png")
	if got != "a/c.png" {
		t.Errorf("cleanRel: got %q, want a/c.png", got)
	}
}
