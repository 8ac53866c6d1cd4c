// Package vault implements the note-vault engine: frontmatter-aware reads,
// concurrent regex search over content and metadata, atomic writes, and
// trash-based deletes. Every operation re-reads from disk; no state survives
// between calls.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/frontmatter"
	"github.com/starford/laguz/internal/models"
)

// TrashDir is the reserved subdirectory directly under the vault root that
// holds soft-deleted notes. It is dot-prefixed, so trashed notes are
// invisible to both search operations.
const TrashDir = ".trash"

// tmpPrefix names in-flight write files. Dot-prefixed so a concurrent
// search never observes one; tmpPattern feeds os.CreateTemp.
const (
	tmpPrefix  = ".laguz-tmp-"
	tmpPattern = tmpPrefix + "*"
)

// Vault is a note collection rooted at a single directory.
type Vault struct {
	root    string // absolute path to the vault directory
	workers int    // search fan-out width
}

// New creates a Vault rooted at the given directory, which must already
// exist. workers bounds the search worker pool; values < 1 default to the
// number of CPUs.
func New(root string, workers int) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Vault{root: abs, workers: workers}, nil
}

// Root returns the absolute vault root path.
func (v *Vault) Root() string {
	return v.root
}

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (v *Vault) safePath(rel string) (string, error) {
	if rel == "" {
		return v.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("vault: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(v.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("vault: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, v.root+string(os.PathSeparator)) && abs != v.root {
		return "", fmt.Errorf("vault: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// ReadNote reads the note at path (relative to the vault root). When parse
// is true and the note carries a decodable frontmatter block, Metadata and
// Body are split out; otherwise Body holds the raw text. Malformed or
// partial frontmatter never blocks a read.
func (v *Vault) ReadNote(path string, parse bool) (*models.Note, error) {
	abs, err := v.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("vault: read %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}

	note := &models.Note{Path: filepath.ToSlash(path), Raw: string(data), Body: string(data)}
	if parse {
		if meta, body, ok := frontmatter.Parse(data); ok {
			note.Metadata = meta
			note.Body = body
			note.HasFrontmatter = true
		}
	}
	return note, nil
}

// Write atomically replaces the note at path (relative to the vault root)
// with content: missing ancestor directories are created, the bytes go to a
// sibling temp file, and a rename lands them, so a concurrent reader sees
// either the old bytes or the new bytes, never a torn file.
//
// created reports whether the target was absent immediately before the
// write began. Two writers racing on the same new path may both report
// created; the final content is whichever rename lands last.
func (v *Vault) Write(path string, content []byte) (created bool, err error) {
	abs, err := v.safePath(path)
	if err != nil {
		return false, err
	}

	_, statErr := os.Stat(abs)
	created = errors.Is(statErr, fs.ErrNotExist)

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("vault: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return false, fmt.Errorf("vault: create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return false, fmt.Errorf("vault: write temp %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return false, fmt.Errorf("vault: fsync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("vault: close temp %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return false, fmt.Errorf("vault: rename to %s: %w", path, err)
	}
	success = true
	return created, nil
}

// Delete removes the note at path (relative to the vault root). When
// permanent is true the file is unlinked; otherwise it is moved into the
// trash under a "{unixSeconds}_{originalName}" name and the vault-relative
// trash path is returned.
func (v *Vault) Delete(path string, permanent bool) (trashPath string, err error) {
	abs, err := v.safePath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("vault: delete %s: %w", path, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("vault: stat %s: %w", path, err)
	}

	if permanent {
		if err := os.Remove(abs); err != nil {
			return "", fmt.Errorf("vault: delete %s: %w", path, err)
		}
		return "", nil
	}

	trashDir := filepath.Join(v.root, TrashDir)
	if err := os.MkdirAll(trashDir, 0o755); err != nil {
		return "", fmt.Errorf("vault: create trash dir %s: %w", trashDir, err)
	}

	// The timestamp prefix keeps repeated deletes of same-named files apart.
	name := fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(abs))
	dest := filepath.Join(trashDir, name)
	if err := os.Rename(abs, dest); err != nil {
		return "", fmt.Errorf("vault: move %s to trash: %w", path, err)
	}
	return filepath.ToSlash(filepath.Join(TrashDir, name)), nil
}

// CleanOrphans removes temp files left behind by writes that crashed
// between the temp write and the rename. Intended to run at startup, when
// no write can be in flight. Returns the number of files removed.
func (v *Vault) CleanOrphans() (int, error) {
	removed := 0
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == v.root {
				return walkErr
			}
			return nil
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}
		if os.Remove(p) == nil {
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("vault: clean orphans: %w", err)
	}
	return removed, nil
}
