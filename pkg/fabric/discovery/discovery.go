package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

const adminItemsEndpoint = "admin/items"

// Query selects items tenant-wide.
type Query struct {
	// Type filters server-side. Empty lists every type.
	Type fabric.ItemType
	// NamePattern is a substring of the item name. Empty matches every item.
	NamePattern string
	// IgnoreCase makes NamePattern case-insensitive. Matching is case-sensitive by default.
	IgnoreCase bool
	// WorkspaceID limits the search to one workspace.
	WorkspaceID string
}

// Matches reports whether name satisfies the name pattern.
func (q Query) Matches(name string) bool {
	if q.NamePattern == "" {
		return true
	}
	if q.IgnoreCase {
		return strings.Contains(strings.ToLower(name), strings.ToLower(q.NamePattern))
	}
	return strings.Contains(name, q.NamePattern)
}

func (q Query) values(token string) url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.WorkspaceID != "" {
		v.Set("workspaceId", q.WorkspaceID)
	}
	if token != "" {
		v.Set("continuationToken", token)
	}
	return v
}

// Page is one server page after the name filter.
type Page struct {
	Items []fabric.Item
	// ContinuationToken is empty on the last page. A single page may be an incomplete result.
	ContinuationToken string
	// Scanned is the number of items the server returned before filtering.
	Scanned int
}

// adminItem is the admin/items entity shape.
type adminItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	State       string `json:"state"`
	Description string `json:"description"`
	WorkspaceID string `json:"workspaceId"`
	CapacityID  string `json:"capacityId"`
}

func (a adminItem) item() fabric.Item {
	t, err := fabric.ParseItemType(a.Type)
	if err != nil {
		t = fabric.ItemType(a.Type)
	}
	return fabric.Item{
		ID:          a.ID,
		Name:        a.Name,
		Type:        t,
		WorkspaceID: a.WorkspaceID,
		CapacityID:  a.CapacityID,
		State:       a.State,
		Description: a.Description,
	}
}

// Client searches items across every workspace through the admin API.
type Client struct {
	api *api.Client
}

// New creates a discovery client. Discovery never mutates, so the client is read-only.
func New(c *api.Client) *Client {
	return &Client{api: c.ReadOnly()}
}

// SearchPage issues exactly one admin/items request.
func (c *Client) SearchPage(ctx context.Context, q Query, token string) (Page, error) {
	resp, err := c.api.Get(ctx, session.AudienceFabric, adminItemsEndpoint, q.values(token))
	if err != nil {
		return Page{}, err
	}

	raw, err := api.DecodeList[adminItem](resp, "itemEntities")
	if err != nil {
		return Page{}, err
	}

	page := Page{
		ContinuationToken: resp.Get("continuationToken").String(),
		Scanned:           len(raw),
		Items:             []fabric.Item{},
	}
	for _, r := range raw {
		if q.Matches(r.Name) {
			page.Items = append(page.Items, r.item())
		}
	}
	log.Debug("Search page", "type", q.Type, "scanned", page.Scanned, "matched", len(page.Items), "more", page.ContinuationToken != "")
	return page, nil
}

// Search returns a lazy pager over every matching item. Items repeated across
// pages are dropped; the first occurrence wins and server order is kept.
func (c *Client) Search(q Query) *api.Pager[fabric.Item] {
	var seen map[string]struct{}
	return api.NewPager[fabric.Item](func(ctx context.Context, token string) ([]fabric.Item, string, error) {
		if token == "" {
			seen = map[string]struct{}{}
		}
		page, err := c.SearchPage(ctx, q, token)
		if err != nil {
			return nil, "", err
		}
		items := make([]fabric.Item, 0, len(page.Items))
		for _, item := range page.Items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			items = append(items, item)
		}
		return items, page.ContinuationToken, nil
	})
}

// SearchAll follows continuation tokens to the end. No match is an empty slice.
func (c *Client) SearchAll(ctx context.Context, q Query) ([]fabric.Item, error) {
	items, err := c.Search(q).All(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []fabric.Item{}
	}
	return items, nil
}

// FindByID looks an item up by ID among items of itemType, stopping at the first page that has it.
func (c *Client) FindByID(ctx context.Context, itemType fabric.ItemType, id string) (fabric.Item, error) {
	pager := c.Search(Query{Type: itemType})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fabric.Item{}, err
		}
		for _, item := range page {
			if strings.EqualFold(item.ID, id) {
				return item, nil
			}
		}
	}
	return fabric.Item{}, fmt.Errorf("%w: %s %s", errUtils.ErrItemNotFound, itemType, id)
}
