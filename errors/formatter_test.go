package errors

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func plainConfig() FormatterConfig {
	config := DefaultFormatterConfig()
	config.Color = "never"
	return config
}

func TestDefaultFormatterConfig(t *testing.T) {
	config := DefaultFormatterConfig()

	assert.False(t, config.Verbose)
	assert.Equal(t, "auto", config.Color)
	assert.Equal(t, 80, config.MaxLineLength)
}

func TestFormat_NilError(t *testing.T) {
	assert.Empty(t, Format(nil, plainConfig()))
}

func TestFormat_SimpleError(t *testing.T) {
	result := Format(errors.New("test error"), plainConfig())

	assert.Equal(t, "Error: test error", result)
	assert.NotContains(t, result, hintPrefix)
}

func TestFormat_Hints(t *testing.T) {
	err := Build(ErrUnauthenticated).
		WithHint("Run `fab auth login`").
		WithHint("Or set auth.method in fabkit.yaml").
		Err()

	result := Format(err, plainConfig())

	assert.Contains(t, result, "not authenticated")
	assert.Contains(t, result, "Run `fab auth login`")
	assert.Equal(t, 2, strings.Count(result, hintPrefix))
}

func TestFormat_Stage(t *testing.T) {
	err := WithStage(ErrItemNotFound, StageResolveItem)

	result := Format(err, plainConfig())

	assert.Contains(t, result, "failed stage: resolve-item")
}

func TestFormat_LongMessageWraps(t *testing.T) {
	long := strings.Repeat("lakehouse ", 20)
	config := plainConfig()
	config.MaxLineLength = 40

	result := Format(errors.New(long), config)

	for _, line := range strings.Split(result, "\n") {
		assert.LessOrEqual(t, len(line), 40)
	}
}

func TestFormat_VerboseContext(t *testing.T) {
	err := Build(ErrQueryFailed).
		WithContext("workspace_id", "ws-1").
		WithContext("model_id", "m-1").
		Err()
	config := plainConfig()
	config.Verbose = true

	result := Format(err, config)

	assert.Contains(t, result, "Context")
	assert.Contains(t, result, "workspace_id")
	assert.Contains(t, result, "ws-1")
	assert.Contains(t, result, "model_id")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 7))
	assert.Equal(t, "", wrapText("", 10))
}
