//go:build windows

package filesystem

import "os"

// renameio does not support Windows.
func writeFileAtomic(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}
