package fabcli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

const installURL = "https://microsoft.github.io/fabric-cli/"

// goos is a variable so tests can exercise the Windows environment.
var goos = runtime.GOOS

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+[0-9A-Za-z.+-]*`)

// CLI wraps the external fab binary.
type CLI struct {
	binary  string
	timeout time.Duration
	runner  Runner
}

// New creates a CLI from configuration. A nil runner uses ExecRunner.
func New(cfg schema.Fab, runner Runner) *CLI {
	if runner == nil {
		runner = ExecRunner{}
	}
	binary := cfg.Binary
	if binary == "" {
		binary = "fab"
	}
	return &CLI{binary: binary, timeout: cfg.Timeout, runner: runner}
}

// Binary returns the configured executable name.
func (c *CLI) Binary() string {
	return c.binary
}

// env returns the extra environment for child processes.
// fab prints UTF-8 names that the Windows console code page cannot encode.
func env() []string {
	if goos == "windows" {
		return []string{"PYTHONIOENCODING=utf-8"}
	}
	return nil
}

// Run executes fab with args and returns stdout.
func (c *CLI) Run(ctx context.Context, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.runner.Run(ctx, Invocation{Name: c.binary, Args: args, Env: env()})
	if err != nil {
		return res.Stdout, c.wrapError(args, res.Stderr, err)
	}
	return res.Stdout, nil
}

// RunInteractive executes fab attached to the terminal.
func (c *CLI) RunInteractive(ctx context.Context, args ...string) error {
	_, err := c.runner.Run(ctx, Invocation{Name: c.binary, Args: args, Env: env(), Interactive: true})
	if err != nil {
		return c.wrapError(args, nil, err)
	}
	return nil
}

func (c *CLI) wrapError(args []string, stderr []byte, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return errUtils.Build(fmt.Errorf("%w: %s", errUtils.ErrFabCLINotFound, c.binary)).
			WithHintf("Install the Fabric CLI from %s", installURL).
			WithHint("Or switch to the REST backend with --backend rest").
			Err()
	}

	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = err.Error()
	}
	return errUtils.Build(fmt.Errorf("%w: fab %s: %s: %w", errUtils.ErrFabCLIFailed, sub, msg, err)).
		WithContext("command", sub).
		Err()
}

// Version returns the installed fab version.
func (c *CLI) Version(ctx context.Context) (*version.Version, error) {
	out, err := c.Run(ctx, "--version")
	if err != nil {
		return nil, err
	}
	raw := versionPattern.FindString(string(out))
	if raw == "" {
		return nil, fmt.Errorf("%w: cannot read version from %q", errUtils.ErrFabCLIVersion, strings.TrimSpace(string(out)))
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUtils.ErrFabCLIVersion, err)
	}
	return v, nil
}

// CheckVersion fails when the installed fab is older than minimum.
func (c *CLI) CheckVersion(ctx context.Context, minimum string) error {
	if minimum == "" {
		return nil
	}
	constraint, err := version.NewConstraint(">= " + minimum)
	if err != nil {
		return fmt.Errorf("%w: fab.min_version %q: %v", errUtils.ErrInvalidConfig, minimum, err)
	}
	v, err := c.Version(ctx)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return errUtils.Build(fmt.Errorf("%w: found %s, need %s or newer", errUtils.ErrFabCLIVersion, v, minimum)).
			WithHint("Upgrade with `pip install --upgrade ms-fabric-cli`").
			Err()
	}
	return nil
}

// AuthStatus runs `fab auth status` and returns its output.
func (c *CLI) AuthStatus(ctx context.Context) (string, error) {
	out, err := c.Run(ctx, "auth", "status")
	if err != nil {
		return "", errUtils.Build(fmt.Errorf("%w: %w", errUtils.ErrUnauthenticated, err)).
			WithHint("Run `fab auth login` or `fabkit auth login`").
			Err()
	}
	return strings.TrimSpace(string(out)), nil
}

// Login runs the interactive `fab auth login`.
func (c *CLI) Login(ctx context.Context) error {
	return c.RunInteractive(ctx, "auth", "login")
}

// TableSchema returns the raw `fab table schema` output for a lakehouse table path.
func (c *CLI) TableSchema(ctx context.Context, tablePath string) (string, error) {
	out, err := c.Run(ctx, "table", "schema", tablePath)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Import uploads a local item definition folder to dest, replacing without prompting.
func (c *CLI) Import(ctx context.Context, dest, dir string) error {
	_, err := c.Run(ctx, "import", dest, "-i", dir, "-f")
	return err
}
