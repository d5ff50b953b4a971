package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/fabcli"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

type staticProvider struct{}

func (staticProvider) Name() string { return "static" }

func (staticProvider) Token(context.Context, session.Audience) (session.Token, error) {
	return session.Token{Value: "tok", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func acquired(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(staticProvider{})
	require.NoError(t, s.Acquire(context.Background()))
	return s
}

func newCLITransport(t *testing.T) (*CLITransport, *fabcli.MockRunner) {
	t.Helper()
	runner := fabcli.NewMockRunner(gomock.NewController(t))
	return NewCLITransport(acquired(t), fabcli.New(schema.Fab{Binary: "fab"}, runner)), runner
}

func TestCLITransport_Get(t *testing.T) {
	transport, runner := newCLITransport(t)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, inv fabcli.Invocation) (fabcli.Result, error) {
		assert.Equal(t, []string{"api", "-X", "get", "admin/items?type=Report", "--show_headers"}, inv.Args)
		return fabcli.Result{Stdout: []byte(`{"status_code":200,"text":{"itemEntities":[]},"headers":{"RequestId":"r-1"}}`)}, nil
	})

	resp, err := transport.Do(context.Background(), &Request{
		Method:   http.MethodGet,
		Endpoint: "admin/items",
		Query:    map[string][]string{"type": {"Report"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "r-1", resp.Header.Get("RequestId"))
	assert.True(t, resp.Get("itemEntities").IsArray())
}

func TestCLITransport_PowerBIPost(t *testing.T) {
	transport, runner := newCLITransport(t)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, inv fabcli.Invocation) (fabcli.Result, error) {
		assert.Equal(t, []string{"api", "-A", "powerbi", "-X", "post", "groups/g/datasets/d/executeQueries", "-i", `{"q":1}`, "--show_headers"}, inv.Args)
		return fabcli.Result{Stdout: []byte(`{"status_code":200,"text":"{\"results\":[]}"}`)}, nil
	})

	resp, err := transport.Do(context.Background(), &Request{
		Method:   http.MethodPost,
		Audience: session.AudiencePowerBI,
		Endpoint: "groups/g/datasets/d/executeQueries",
		Body:     map[string]int{"q": 1},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[]}`, string(resp.Body))
}

func TestCLITransport_ErrorEnvelopeIsClassifiable(t *testing.T) {
	transport, runner := newCLITransport(t)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(
		fabcli.Result{Stdout: []byte(`{"status_code":429,"text":{"errorCode":"TooManyRequests"},"headers":{"Retry-After":"12"}}`)},
		errors.New("exit status 1"),
	)

	req := &Request{Method: http.MethodGet, Endpoint: "admin/items"}
	resp, err := transport.Do(context.Background(), req)
	require.NoError(t, err)

	classified := Classify(req, resp)
	assert.ErrorIs(t, classified, errUtils.ErrRateLimited)
	d, ok := RetryAfter(classified)
	require.True(t, ok)
	assert.Equal(t, 12*time.Second, d)
}

func TestCLITransport_RunFailure(t *testing.T) {
	transport, runner := newCLITransport(t)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(fabcli.Result{Stderr: []byte("boom")}, errors.New("exit status 2"))

	_, err := transport.Do(context.Background(), &Request{Method: http.MethodGet, Endpoint: "workspaces"})
	assert.ErrorIs(t, err, errUtils.ErrFabCLIFailed)
}

func TestCLITransport_AbsoluteURLUnsupported(t *testing.T) {
	transport, _ := newCLITransport(t)

	_, err := transport.Do(context.Background(), &Request{Method: http.MethodPost, Endpoint: "https://example.analysis.windows.net/metadata/datahub/V2/artifacts"})
	assert.ErrorIs(t, err, errUtils.ErrUnsupportedBackend)
}

func TestParseEnvelope_Invalid(t *testing.T) {
	_, err := parseEnvelope([]byte("Error: not logged in"))
	assert.ErrorIs(t, err, errUtils.ErrInvalidResponse)

	_, err = parseEnvelope([]byte(`{"text":"x"}`))
	assert.ErrorIs(t, err, errUtils.ErrInvalidResponse)
}
