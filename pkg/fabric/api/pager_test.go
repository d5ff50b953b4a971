package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

func threePages(calls *[]string) PageFunc[int] {
	pages := map[string]struct {
		items []int
		next  string
	}{
		"":   {[]int{1, 2}, "t1"},
		"t1": {[]int{3}, "t2"},
		"t2": {[]int{4, 5}, ""},
	}
	return func(_ context.Context, token string) ([]int, string, error) {
		*calls = append(*calls, token)
		p := pages[token]
		return p.items, p.next, nil
	}
}

func TestPager_Lazy(t *testing.T) {
	var calls []string
	p := NewPager(threePages(&calls))

	assert.True(t, p.More())
	assert.Empty(t, calls)

	page, err := p.NextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, page)
	assert.Equal(t, []string{""}, calls)
	assert.Equal(t, "t1", p.Token())
	assert.True(t, p.More())
}

func TestPager_AllAndReset(t *testing.T) {
	var calls []string
	p := NewPager(threePages(&calls))

	all, err := p.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, all)
	assert.False(t, p.More())
	assert.Equal(t, 3, p.Pages())

	page, err := p.NextPage(context.Background())
	require.NoError(t, err)
	assert.Nil(t, page)

	p.Reset()
	again, err := p.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, all, again)
	assert.Equal(t, []string{"", "t1", "t2", "", "t1", "t2"}, calls)
}

func TestPager_ErrorKeepsPosition(t *testing.T) {
	fail := true
	p := NewPager[int](func(_ context.Context, token string) ([]int, string, error) {
		if token == "t1" && fail {
			return nil, "", errUtils.ErrRateLimited
		}
		if token == "" {
			return []int{1}, "t1", nil
		}
		return []int{2}, "", nil
	})

	_, err := p.NextPage(context.Background())
	require.NoError(t, err)
	_, err = p.NextPage(context.Background())
	assert.ErrorIs(t, err, errUtils.ErrRateLimited)
	assert.True(t, p.More())

	fail = false
	page, err := p.NextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, page)
	assert.False(t, p.More())
}

func TestPager_StuckToken(t *testing.T) {
	p := NewPager[int](func(_ context.Context, token string) ([]int, string, error) {
		return []int{1}, "same", nil
	})
	_, err := p.NextPage(context.Background())
	require.NoError(t, err)
	_, err = p.NextPage(context.Background())
	assert.True(t, errors.Is(err, errUtils.ErrInvalidResponse))
}

func TestDecodeList(t *testing.T) {
	resp := &Response{Body: []byte(`{"value":[{"id":"a"},{"id":"b"}]}`)}
	items, err := DecodeList[struct {
		ID string `json:"id"`
	}](resp, "value")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[1].ID)

	none, err := DecodeList[int](&Response{Body: []byte(`{}`)}, "value")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = DecodeList[int](&Response{Body: []byte(`{"value":"x"}`)}, "value")
	assert.ErrorIs(t, err, errUtils.ErrInvalidResponse)
}
