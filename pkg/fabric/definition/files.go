package definition

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

var whitespace = regexp.MustCompile(`\s+`)

// SafeName makes a display name usable as a file or folder name.
// Reserved characters become underscores and runs of whitespace a single space.
// Names that would be empty or only dots become "_", so they never leave the parent folder.
func SafeName(name string) string {
	safe := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, name)
	safe = strings.TrimSpace(whitespace.ReplaceAllString(safe, " "))
	if strings.Trim(safe, ". ") == "" {
		return "_"
	}
	return safe
}

// WriteFiles writes definition files under dir, creating folders as needed.
// Part paths that would land outside dir are rejected.
func WriteFiles(fs afero.Fs, dir string, files map[string]string) error {
	root := filepath.Clean(dir)
	for path, content := range files {
		target := filepath.Join(root, filepath.FromSlash(path))
		if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return fmt.Errorf("%w: part %q is outside %s", errUtils.ErrOutputWrite, path, dir)
		}
		if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
		}
		if err := afero.WriteFile(fs, target, []byte(content), 0o644); err != nil {
			return fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
		}
	}
	return nil
}
