package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store persists uploaded files and hands back retrievable URLs. Satisfied
// by *LocalStore; narrow interface for testability.
type Store interface {
	Save(relPath string, r io.Reader) error
	PublicURL(relPath string) string
}

// LocalStore writes uploads under a root directory and serves them from
// baseURL/uploads/. Paths are cleaned and confined to the root so a crafted
// filename cannot escape it.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save writes the reader's contents to root/relPath, creating parent
// directories as needed.
func (s *LocalStore) Save(relPath string, r io.Reader) error {
	target, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(target)
		return fmt.Errorf("write upload: %w", err)
	}
	return nil
}

// PublicURL returns the URL a stored file is retrievable from.
func (s *LocalStore) PublicURL(relPath string) string {
	return s.baseURL + "/uploads/" + cleanRel(relPath)
}

func (s *LocalStore) resolve(relPath string) (string, error) {
	cleanBase := filepath.Clean(s.root)
	target := filepath.Join(cleanBase, filepath.FromSlash(cleanRel(relPath)))
	cleanTarget := filepath.Clean(target)
	if cleanTarget == cleanBase || !strings.HasPrefix(cleanTarget, cleanBase+string(os.PathSeparator)) {
		return "", fmt.Errorf("refusing path outside upload root: %s", relPath)
	}
	return cleanTarget, nil
}

func cleanRel(relPath string) string {
	clean := path.Clean("/" + strings.TrimPrefix(strings.TrimSpace(relPath), "/"))
	return strings.TrimPrefix(clean, "/")
}
