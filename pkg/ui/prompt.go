package ui

import (
	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// Confirm asks a yes/no question. Ctrl-C returns ErrAborted.
func Confirm(title, description string) (bool, error) {
	confirmed := false
	prompt := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)
	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, errUtils.ErrAborted
		}
		return false, err
	}
	return confirmed, nil
}
