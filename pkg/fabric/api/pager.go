package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
)

// PageFunc fetches the page at token. An empty next token ends the sequence.
type PageFunc[T any] func(ctx context.Context, token string) (items []T, next string, err error)

// Pager is a lazy, restartable sequence of pages behind continuation tokens.
// Pages are fetched one at a time, only when NextPage is called.
//
//	pager := client.Search(ctx, q)
//	for pager.More() {
//		page, err := pager.NextPage(ctx)
//		...
//	}
type Pager[T any] struct {
	fetch PageFunc[T]
	token string
	done  bool
	pages int
}

// NewPager creates a pager positioned before the first page.
func NewPager[T any](fetch PageFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch}
}

// More reports whether another page can be fetched.
func (p *Pager[T]) More() bool {
	return !p.done
}

// NextPage fetches the next page. On error the position is kept, so the same page can be requested again.
func (p *Pager[T]) NextPage(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, nil
	}
	items, next, err := p.fetch(ctx, p.token)
	if err != nil {
		return nil, err
	}
	if next != "" && next == p.token {
		return nil, fmt.Errorf("%w: continuation token did not advance", errUtils.ErrInvalidResponse)
	}
	p.pages++
	p.token = next
	p.done = next == ""
	return items, nil
}

// Token returns the continuation token of the next page, empty before the first page and after the last.
func (p *Pager[T]) Token() string {
	return p.token
}

// Pages returns how many pages were fetched since the last reset.
func (p *Pager[T]) Pages() int {
	return p.pages
}

// Reset rewinds the pager to the first page.
func (p *Pager[T]) Reset() {
	p.token = ""
	p.done = false
	p.pages = 0
}

// All drains the remaining pages.
func (p *Pager[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	for p.More() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, page...)
	}
	return out, nil
}

// ListPager pages a list endpoint whose items sit under key, with continuationToken paging.
func ListPager[T any](c *Client, audience session.Audience, endpoint string, query url.Values, key string) *Pager[T] {
	return NewPager[T](func(ctx context.Context, token string) ([]T, string, error) {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		if token != "" {
			q.Set("continuationToken", token)
		}
		resp, err := c.Get(ctx, audience, endpoint, q)
		if err != nil {
			return nil, "", err
		}
		items, err := DecodeList[T](resp, key)
		if err != nil {
			return nil, "", err
		}
		return items, resp.Get("continuationToken").String(), nil
	})
}

// DecodeList decodes the array under key in the response body.
func DecodeList[T any](resp *Response, key string) ([]T, error) {
	arr := resp.Get(key)
	if !arr.Exists() || arr.Type == gjson.Null {
		return nil, nil
	}
	if !arr.IsArray() {
		return nil, fmt.Errorf("%w: %q is not a list", errUtils.ErrInvalidResponse, key)
	}
	var items []T
	if err := json.Unmarshal([]byte(arr.Raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errUtils.ErrInvalidResponse, key, err)
	}
	return items, nil
}
