// Package testutil provides shared test helpers for setting up vaults.
package testutil

import (
	"testing"

	"github.com/starford/laguz/internal/vault"
)

// TestVault creates a temporary vault directory that is automatically
// cleaned up, returning its root path and the Vault handle.
func TestVault(t *testing.T) (string, *vault.Vault) {
	t.Helper()
	root := t.TempDir()
	v, err := vault.New(root, 4)
	if err != nil {
		t.Fatal(err)
	}
	return root, v
}
