// Package apitest provides an in-memory Transport for tests.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
)

// Reply is a canned response.
type Reply struct {
	Status int
	Header http.Header
	Body   any
	Err    error
}

// Call records a request seen by the fake.
type Call struct {
	Method   string
	Audience string
	Target   string
	Body     []byte
}

// Fake routes requests by "METHOD target", where target is the endpoint with its encoded query.
// A route with several replies answers them in order and repeats the last one.
// Unrouted requests get a 404.
type Fake struct {
	mu     sync.Mutex
	routes map[string][]Reply
	served map[string]int
	calls  []Call
}

// New creates an empty fake.
func New() *Fake {
	return &Fake{routes: map[string][]Reply{}, served: map[string]int{}}
}

// On registers replies for method and target.
func (f *Fake) On(method, target string, replies ...Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToUpper(method) + " " + target
	f.routes[key] = append(f.routes[key], replies...)
	return f
}

// JSON is a 200 reply with body encoded as JSON.
func JSON(body any) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// Status is an empty reply with status.
func Status(status int) Reply {
	return Reply{Status: status}
}

// Error is a Fabric style error reply.
func Error(status int, code, message string) Reply {
	return Reply{Status: status, Body: map[string]string{"errorCode": code, "message": message}}
}

// Accepted is a 202 reply pointing at a long running operation.
func Accepted(operationID string) Reply {
	h := http.Header{}
	h.Set("x-ms-operation-id", operationID)
	h.Set("Retry-After", "1")
	return Reply{Status: http.StatusAccepted, Header: h}
}

// Do implements api.Transport.
func (f *Fake) Do(_ context.Context, req *api.Request) (*api.Response, error) {
	body, err := req.EncodeBody()
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	target := req.Target()
	f.calls = append(f.calls, Call{Method: req.Method, Audience: string(req.Audience), Target: target, Body: body})

	key := strings.ToUpper(req.Method) + " " + target
	replies, ok := f.routes[key]
	if !ok || len(replies) == 0 {
		return &api.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{},
			Body:       []byte(fmt.Sprintf(`{"errorCode":"EntityNotFound","message":"no route for %s"}`, key)),
		}, nil
	}

	i := f.served[key]
	if i >= len(replies) {
		i = len(replies) - 1
	}
	f.served[key]++
	reply := replies[i]
	if reply.Err != nil {
		return nil, reply.Err
	}

	resp := &api.Response{StatusCode: reply.Status, Header: reply.Header}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	switch b := reply.Body.(type) {
	case nil:
	case string:
		resp.Body = []byte(b)
	case []byte:
		resp.Body = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		resp.Body = data
	}
	return resp, nil
}

// Calls returns every recorded request.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Count returns how many requests matched method and a target prefix.
func (f *Fake) Count(method, targetPrefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.EqualFold(c.Method, method) && strings.HasPrefix(c.Target, targetPrefix) {
			n++
		}
	}
	return n
}

// Mutations returns the recorded requests that api.IsMutating flags.
func (f *Fake) Mutations() []Call {
	var out []Call
	for _, c := range f.Calls() {
		if api.IsMutating(&api.Request{Method: c.Method, Endpoint: c.Target}) {
			out = append(out, c)
		}
	}
	return out
}
