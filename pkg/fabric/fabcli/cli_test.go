package fabcli

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

func newCLI(t *testing.T) (*CLI, *MockRunner) {
	t.Helper()
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	return New(schema.Fab{Binary: "fab"}, runner), runner
}

func TestRun_ReturnsStdout(t *testing.T) {
	cli, runner := newCLI(t)
	runner.EXPECT().Run(gomock.Any(), Invocation{Name: "fab", Args: []string{"ls"}}).
		Return(Result{Stdout: []byte("Sales.Workspace\n")}, nil)

	out, err := cli.Run(context.Background(), "ls")
	require.NoError(t, err)
	assert.Equal(t, "Sales.Workspace\n", string(out))
}

func TestRun_WindowsEncoding(t *testing.T) {
	orig := goos
	goos = "windows"
	t.Cleanup(func() { goos = orig })

	cli, runner := newCLI(t)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, inv Invocation) (Result, error) {
		assert.Equal(t, []string{"PYTHONIOENCODING=utf-8"}, inv.Env)
		return Result{}, nil
	})

	_, err := cli.Run(context.Background(), "ls")
	require.NoError(t, err)
}

func TestRun_NotInstalled(t *testing.T) {
	cli, runner := newCLI(t)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(Result{}, &exec.Error{Name: "fab", Err: exec.ErrNotFound})

	_, err := cli.Run(context.Background(), "ls")
	assert.ErrorIs(t, err, errUtils.ErrFabCLINotFound)
}

func TestRun_FailureCarriesStderr(t *testing.T) {
	cli, runner := newCLI(t)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(Result{Stderr: []byte("x [NotFound] path not found\n")}, errors.New("exit status 1"))

	_, err := cli.Run(context.Background(), "get", "Nope.Workspace")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUtils.ErrFabCLIFailed)
	assert.Contains(t, err.Error(), "path not found")
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		minimum string
		wantErr error
	}{
		{"newer", "fab version 1.2.0\n", "1.0.0", nil},
		{"equal", "1.0.0", "1.0.0", nil},
		{"older", "fab version 0.9.3", "1.0.0", errUtils.ErrFabCLIVersion},
		{"unreadable", "fab dev build", "1.0.0", errUtils.ErrFabCLIVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, runner := newCLI(t)
			runner.EXPECT().Run(gomock.Any(), Invocation{Name: "fab", Args: []string{"--version"}}).
				Return(Result{Stdout: []byte(tt.output)}, nil)

			err := cli.CheckVersion(context.Background(), tt.minimum)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckVersion_NoMinimum(t *testing.T) {
	cli, _ := newCLI(t)
	assert.NoError(t, cli.CheckVersion(context.Background(), ""))
}

func TestAuthStatus(t *testing.T) {
	cli, runner := newCLI(t)
	runner.EXPECT().Run(gomock.Any(), Invocation{Name: "fab", Args: []string{"auth", "status"}}).
		Return(Result{Stdout: []byte("✓ Logged in to app.fabric.microsoft.com\n")}, nil)

	status, err := cli.AuthStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "✓ Logged in to app.fabric.microsoft.com", status)
}

func TestAuthStatus_LoggedOut(t *testing.T) {
	cli, runner := newCLI(t)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(Result{Stderr: []byte("not logged in")}, errors.New("exit status 1"))

	_, err := cli.AuthStatus(context.Background())
	assert.ErrorIs(t, err, errUtils.ErrUnauthenticated)
}

func TestImport(t *testing.T) {
	cli, runner := newCLI(t)
	runner.EXPECT().Run(gomock.Any(), Invocation{
		Name: "fab",
		Args: []string{"import", "Sales.Workspace/Orders.SemanticModel", "-i", "/tmp/model", "-f"},
	}).Return(Result{}, nil)

	assert.NoError(t, cli.Import(context.Background(), "Sales.Workspace/Orders.SemanticModel", "/tmp/model"))
}

func TestRedactArgs(t *testing.T) {
	assert.Equal(t, "api -X post x -i <body>", redactArgs([]string{"api", "-X", "post", "x", "-i", `{"q":1}`}))
	assert.Equal(t, "import dest -i /tmp/m -f", redactArgs([]string{"import", "dest", "-i", "/tmp/m", "-f"}))
}
