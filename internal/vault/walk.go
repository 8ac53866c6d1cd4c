package vault

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// listNotes returns the vault-relative path of every regular .md file
// reachable from the root. Dot-prefixed entries and everything beneath them
// are excluded, which also hides the trash and in-flight temp files. An
// entry that vanishes mid-walk is skipped.
func (v *Vault) listNotes() ([]string, error) {
	var out []string
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == v.root {
				return walkErr
			}
			return nil
		}
		if p != v.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || filepath.Ext(d.Name()) != ".md" {
			return nil
		}
		rel, relErr := filepath.Rel(v.root, p)
		if relErr != nil {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: walk %s: %w", v.root, err)
	}
	return out, nil
}
