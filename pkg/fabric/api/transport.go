//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=transport.go -destination=mock_transport.go -package=api

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
)

// Request is one API call. Endpoint is relative to the audience base URL, or absolute.
type Request struct {
	Method   string
	Audience session.Audience
	Endpoint string
	Query    url.Values
	Body     any
}

// Target returns the endpoint with its encoded query.
func (r *Request) Target() string {
	if len(r.Query) == 0 {
		return r.Endpoint
	}
	sep := "?"
	if strings.Contains(r.Endpoint, "?") {
		sep = "&"
	}
	return r.Endpoint + sep + r.Query.Encode()
}

// IsAbsolute reports whether Endpoint is a full URL.
func (r *Request) IsAbsolute() bool {
	return strings.HasPrefix(r.Endpoint, "https://") || strings.HasPrefix(r.Endpoint, "http://")
}

// EncodeBody returns the JSON request body, or nil when there is none.
func (r *Request) EncodeBody() ([]byte, error) {
	switch b := r.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		out, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("%w: encode request body: %v", errUtils.ErrRequestFailed, err)
		}
		return out, nil
	}
}

// Response is the raw result of a call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get returns the gjson value at path in the body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty body", errUtils.ErrInvalidResponse)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", errUtils.ErrInvalidResponse, err)
	}
	return nil
}

// Transport sends requests to the Fabric and Power BI APIs.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}
