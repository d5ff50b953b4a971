package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/fabcli"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
)

// CLITransport sends requests through `fab api`, reusing the fab CLI login.
type CLITransport struct {
	session *session.Session
	cli     *fabcli.CLI
}

// NewCLITransport creates a transport over the fab CLI.
func NewCLITransport(sess *session.Session, cli *fabcli.CLI) *CLITransport {
	return &CLITransport{session: sess, cli: cli}
}

// Do implements Transport.
func (t *CLITransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := t.session.Validate(ctx); err != nil {
		return nil, err
	}
	if req.IsAbsolute() || req.Audience == session.AudienceStorage {
		return nil, errUtils.Build(fmt.Errorf("%w: fab api cannot call %s", errUtils.ErrUnsupportedBackend, req.Endpoint)).
			WithHint("Use --backend rest for this command").
			Err()
	}

	args, err := apiArgs(req)
	if err != nil {
		return nil, err
	}

	out, runErr := t.cli.Run(ctx, args...)
	resp, parseErr := parseEnvelope(out)
	if parseErr != nil {
		if runErr != nil {
			return nil, runErr
		}
		return nil, parseErr
	}
	return resp, nil
}

// apiArgs builds `fab api [-A powerbi] -X <method> <endpoint> [-i <json>] --show_headers`.
func apiArgs(req *Request) ([]string, error) {
	args := []string{"api"}
	if req.Audience == session.AudiencePowerBI {
		args = append(args, "-A", "powerbi")
	}
	method := strings.ToLower(req.Method)
	if method == "" {
		method = "get"
	}
	args = append(args, "-X", method, strings.TrimPrefix(req.Target(), "/"))

	payload, err := req.EncodeBody()
	if err != nil {
		return nil, err
	}
	if payload != nil {
		args = append(args, "-i", string(payload))
	}
	return append(args, "--show_headers"), nil
}

// parseEnvelope reads the {status_code, text, headers} object printed by `fab api`.
// text is either a JSON value or a plain string.
func parseEnvelope(out []byte) (*Response, error) {
	raw := strings.TrimSpace(string(out))
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: fab api printed non-JSON output", errUtils.ErrInvalidResponse)
	}
	env := gjson.Parse(raw)
	status := env.Get("status_code")
	if !status.Exists() {
		return nil, fmt.Errorf("%w: fab api output has no status_code", errUtils.ErrInvalidResponse)
	}

	resp := &Response{StatusCode: int(status.Int()), Header: http.Header{}}
	env.Get("headers").ForEach(func(key, value gjson.Result) bool {
		resp.Header.Set(key.String(), value.String())
		return true
	})

	text := env.Get("text")
	switch {
	case !text.Exists() || text.Type == gjson.Null:
	case text.Type == gjson.String:
		resp.Body = []byte(text.String())
	default:
		resp.Body = []byte(text.Raw)
	}
	return resp, nil
}
