package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// StatusError is a failed API response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
	Method     string
	Endpoint   string
	RequestID  string
}

func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %d", e.Method, e.Endpoint, e.StatusCode)
	if e.Code != "" {
		b.WriteString(" " + e.Code)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// Unwrap returns the error class for the status code.
func (e *StatusError) Unwrap() error {
	return sentinelFor(e.StatusCode)
}

func sentinelFor(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return errUtils.ErrUnauthenticated
	case http.StatusForbidden:
		return errUtils.ErrUnauthorized
	case http.StatusNotFound:
		return errUtils.ErrNotFound
	case http.StatusTooManyRequests:
		return errUtils.ErrRateLimited
	default:
		return errUtils.ErrRequestFailed
	}
}

// Classify turns a response with status >= 400 into an error carrying its class.
// Nothing is retried here; rate limits carry RetryAfter for the caller.
func Classify(req *Request, resp *Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	se := &StatusError{
		StatusCode: resp.StatusCode,
		Method:     req.Method,
		Endpoint:   req.Endpoint,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		RequestID:  firstNonEmpty(resp.Header.Get("RequestId"), resp.Header.Get("x-ms-request-id"), resp.Get("requestId").String()),
	}

	// Fabric: {"errorCode","message"}. Power BI: {"error":{"code","message"}}.
	se.Code = firstNonEmpty(resp.Get("errorCode").String(), resp.Get("error.code").String())
	se.Message = firstNonEmpty(resp.Get("message").String(), resp.Get("error.message").String())
	if se.Message == "" && len(resp.Body) > 0 && len(resp.Body) < 512 && !resp.Get("@this").IsObject() {
		se.Message = strings.TrimSpace(string(resp.Body))
	}

	builder := errUtils.Build(se).
		WithContext("status", resp.StatusCode).
		WithContext("endpoint", req.Endpoint)
	if se.RequestID != "" {
		builder = builder.WithContext("request_id", se.RequestID)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		builder = builder.WithHint("Sign in again with `fabkit auth login`")
	case http.StatusForbidden:
		if strings.HasPrefix(req.Endpoint, "admin/") {
			builder = builder.WithHint("Admin APIs need the Fabric administrator role")
		}
	case http.StatusTooManyRequests:
		if se.RetryAfter > 0 {
			builder = builder.WithHintf("Wait %s before retrying", se.RetryAfter)
		} else {
			builder = builder.WithHint("Wait before retrying")
		}
	}
	return builder.Err()
}

// RetryAfter returns the server requested delay of a rate limited error.
func RetryAfter(err error) (time.Duration, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return se.RetryAfter, true
	}
	return 0, false
}

// StatusCode returns the HTTP status of err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
