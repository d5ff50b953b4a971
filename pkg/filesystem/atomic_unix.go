//go:build !windows

package filesystem

import (
	"os"

	"github.com/google/renameio/v2"
)

// Temp file plus rename; durability depends on fsync behavior.
func writeFileAtomic(name string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(name, data, perm)
}
