package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// WriteOutput writes a result file the user asked for. Readers never see a partial file.
// Missing parent directories are created. Failures carry the write-output stage.
func WriteOutput(name string, data []byte) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return writeError(name, err)
		}
	}
	if err := writeFileAtomic(name, data, 0o644); err != nil {
		return writeError(name, err)
	}
	return nil
}

func writeError(name string, err error) error {
	return errUtils.Build(fmt.Errorf("%w: %s: %v", errUtils.ErrOutputWrite, name, err)).
		WithStage(errUtils.StageWriteOutput).
		Err()
}
