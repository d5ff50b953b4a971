package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	fhttp "github.com/data-goblin/fabric-cli-plugin/pkg/http"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

// RESTTransport calls the APIs over HTTPS with bearer tokens from the session.
type RESTTransport struct {
	session *session.Session
	client  fhttp.Client
	bases   map[session.Audience]string
}

// NewRESTTransport creates a REST transport. A nil client uses the default HTTP client.
func NewRESTTransport(sess *session.Session, cfg schema.API, client fhttp.Client) *RESTTransport {
	if client == nil {
		client = fhttp.NewDefaultClient(fhttp.WithTimeout(cfg.Timeout))
	}
	return &RESTTransport{
		session: sess,
		client:  client,
		bases: map[session.Audience]string{
			session.AudienceFabric:  withSlash(cfg.FabricBaseURL),
			session.AudiencePowerBI: withSlash(cfg.PowerBIBaseURL),
		},
	}
}

func withSlash(u string) string {
	if u != "" && !strings.HasSuffix(u, "/") {
		return u + "/"
	}
	return u
}

func (t *RESTTransport) url(req *Request) (string, error) {
	if req.IsAbsolute() {
		return req.Target(), nil
	}
	aud := req.Audience
	if aud == "" {
		aud = session.AudienceFabric
	}
	base, ok := t.bases[aud]
	if !ok || base == "" {
		return "", fmt.Errorf("%w: no base URL for audience %q", errUtils.ErrInvalidConfig, aud)
	}
	return base + strings.TrimPrefix(req.Target(), "/"), nil
}

// Do implements Transport.
func (t *RESTTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	aud := req.Audience
	if aud == "" {
		aud = session.AudienceFabric
	}
	token, err := t.session.Token(ctx, aud)
	if err != nil {
		return nil, err
	}

	target, err := t.url(req)
	if err != nil {
		return nil, err
	}
	payload, err := req.EncodeBody()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUtils.ErrRequestFailed, err)
	}
	fhttp.SetBearer(httpReq, token)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUtils.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", errUtils.ErrRequestFailed, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
