//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=runner.go -destination=mock_runner.go -package=fabcli

package fabcli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// Invocation describes one child process.
type Invocation struct {
	Name string
	Args []string
	// Env is appended to the parent environment.
	Env []string
	// Interactive connects the child to the terminal instead of capturing its output.
	Interactive bool
}

// Result holds the captured output of a finished child process.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	cmd.Env = append(os.Environ(), inv.Env...)

	log.Debug("Executing command", "command", inv.Name, "args", redactArgs(inv.Args))

	if inv.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return Result{}, cmd.Run()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}

// redactArgs hides `fab api` request bodies, which may carry queries.
func redactArgs(args []string) string {
	out := make([]string, len(args))
	for i, arg := range args {
		if i > 0 && args[0] == "api" && args[i-1] == "-i" {
			out[i] = "<body>"
			continue
		}
		out[i] = arg
	}
	return strings.Join(out, " ")
}
