package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockClient(ctrl)

	client.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, req.Method)
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"ok":true}`))}, nil
	})

	body, err := Get(context.Background(), "https://api.fabric.microsoft.com/v1/workspaces", client)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGet_Failures(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockClient(ctrl)

	client.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection reset"))
	_, err := Get(context.Background(), "https://example.invalid", client)
	assert.ErrorIs(t, err, errUtils.ErrRequestFailed)

	client.EXPECT().Do(gomock.Any()).Return(&http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader(""))}, nil)
	_, err = Get(context.Background(), "https://example.invalid", client)
	assert.ErrorIs(t, err, errUtils.ErrRequestFailed)
}

func TestDefaultClient_SetsUserAgent(t *testing.T) {
	var gotAgent, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewDefaultClient(WithTimeout(5 * time.Second))
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	SetBearer(req, "token-1")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.True(t, strings.HasPrefix(gotAgent, "fabkit/"))
	assert.Equal(t, "Bearer token-1", gotAuth)
}
