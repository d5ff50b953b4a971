package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

const (
	defaultLROTimeout  = 10 * time.Minute
	defaultLROInterval = 2 * time.Second
)

// POST endpoints that only read.
var readOnlyPostSuffixes = []string{
	"/getDefinition",
	"/executeQueries",
	"metadata/datahub/V2/artifacts",
}

// Client adds response classification and long running operation handling to a Transport.
type Client struct {
	transport   Transport
	readOnly    bool
	lroTimeout  time.Duration
	lroInterval time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLRO sets the polling interval and the overall timeout for long running operations.
func WithLRO(cfg schema.API) ClientOption {
	return func(c *Client) {
		if cfg.LROTimeout > 0 {
			c.lroTimeout = cfg.LROTimeout
		}
		if cfg.LROInterval > 0 {
			c.lroInterval = cfg.LROInterval
		}
	}
}

// WithSleep replaces the wait between operation polls.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient creates a client that may issue mutating requests.
func NewClient(transport Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport:   transport,
		lroTimeout:  defaultLROTimeout,
		lroInterval: defaultLROInterval,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadOnly returns a copy of c that refuses mutating requests.
func (c *Client) ReadOnly() *Client {
	ro := *c
	ro.readOnly = true
	return &ro
}

// IsReadOnly reports whether c refuses mutating requests.
func (c *Client) IsReadOnly() bool {
	return c.readOnly
}

// IsMutating reports whether req may change state in the service.
func IsMutating(req *Request) bool {
	switch strings.ToUpper(req.Method) {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	case http.MethodPost:
		endpoint := req.Endpoint
		if i := strings.IndexByte(endpoint, '?'); i >= 0 {
			endpoint = endpoint[:i]
		}
		for _, suffix := range readOnlyPostSuffixes {
			if strings.HasSuffix(endpoint, suffix) {
				return false
			}
		}
	}
	return true
}

// Do sends req and classifies the response. 202 responses are returned as is.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if c.readOnly && IsMutating(req) {
		return nil, errUtils.Build(fmt.Errorf("%w: %s %s", errUtils.ErrMutatingRequest, req.Method, req.Endpoint)).
			WithContext("endpoint", req.Endpoint).
			Err()
	}

	log.Debug("API request", "method", req.Method, "audience", req.Audience, "endpoint", req.Endpoint)
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Trace("API response", "endpoint", req.Endpoint, "status", resp.StatusCode, "bytes", len(resp.Body))
	if err := Classify(req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, audience session.Audience, endpoint string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Audience: audience, Endpoint: endpoint, Query: query})
}

// GetJSON issues a GET request and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, audience session.Audience, endpoint string, query url.Values, out any) error {
	resp, err := c.Get(ctx, audience, endpoint, query)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Post issues a POST request and waits for the result when the service answers 202.
func (c *Client) Post(ctx context.Context, audience session.Audience, endpoint string, body any) (*Response, error) {
	req := &Request{Method: http.MethodPost, Audience: audience, Endpoint: endpoint, Body: body}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusAccepted {
		return c.wait(ctx, req, resp)
	}
	return resp, nil
}

// PostJSON issues a POST request and decodes the final body into out.
func (c *Client) PostJSON(ctx context.Context, audience session.Audience, endpoint string, body any, out any) error {
	resp, err := c.Post(ctx, audience, endpoint, body)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// operationID reads the operation from x-ms-operation-id or the Location header.
func operationID(h http.Header) string {
	if id := h.Get("x-ms-operation-id"); id != "" {
		return id
	}
	loc := h.Get("Location")
	if loc == "" {
		return ""
	}
	if u, err := url.Parse(loc); err == nil {
		loc = u.Path
	}
	loc = strings.TrimSuffix(loc, "/result")
	if !strings.Contains(loc, "/operations/") {
		return ""
	}
	return path.Base(loc)
}

// wait polls operations/{id} until the operation finishes. Polling waits on
// an accepted request; a failed operation is reported, never resubmitted.
func (c *Client) wait(ctx context.Context, req *Request, accepted *Response) (*Response, error) {
	id := operationID(accepted.Header)
	if id == "" {
		return accepted, nil
	}
	log.Debug("Waiting for long running operation", "operation", id, "endpoint", req.Endpoint)

	var waited time.Duration
	delay := retryAfterOr(accepted.Header, c.lroInterval)
	for {
		if waited+delay > c.lroTimeout {
			return nil, errUtils.Build(fmt.Errorf("%w: operation %s after %s", errUtils.ErrOperationTimeout, id, c.lroTimeout)).
				WithHint("Raise api.lro_timeout in fabkit.yaml").
				WithContext("operation", id).
				Err()
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		waited += delay

		status, err := c.Get(ctx, session.AudienceFabric, "operations/"+id, nil)
		if err != nil {
			return nil, err
		}

		switch state := status.Get("status").String(); state {
		case "Succeeded":
			return c.result(ctx, id)
		case "Failed", "Undefined":
			msg := status.Get("error.message").String()
			if msg == "" {
				msg = state
			}
			return nil, errUtils.Build(fmt.Errorf("%w: %s: %s", errUtils.ErrOperationFailed, id, msg)).
				WithContext("operation", id).
				WithContext("error_code", status.Get("error.errorCode").String()).
				Err()
		default:
			log.Trace("Operation in progress", "operation", id, "status", state, "percent", status.Get("percentComplete").Int())
		}
		delay = retryAfterOr(status.Header, c.lroInterval)
	}
}

// result fetches operations/{id}/result. Operations without a result yield an empty 200.
func (c *Client) result(ctx context.Context, id string) (*Response, error) {
	resp, err := c.Get(ctx, session.AudienceFabric, "operations/"+id+"/result", nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusNotFound || se.Code == "OperationHasNoResult") {
			return &Response{StatusCode: http.StatusOK, Header: http.Header{}}, nil
		}
		return nil, err
	}
	return resp, nil
}

func retryAfterOr(h http.Header, fallback time.Duration) time.Duration {
	if d := parseRetryAfter(h.Get("Retry-After")); d > 0 {
		return d
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
