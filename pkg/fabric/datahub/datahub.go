// Package datahub searches items across every workspace the caller can see through the DataHub V2 API.
// Unlike the admin APIs it needs no tenant admin rights and returns usage metadata:
// last visit, owner, storage mode and capacity SKU.
package datahub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

const (
	artifactsEndpoint = "metadata/datahub/V2/artifacts"

	// MaxPageSize is the largest page the service accepts.
	MaxPageSize     = 1000
	defaultPageSize = 200

	// hostFamily 4 selects Fabric in the DataHub payload.
	hostFamily = 4
)

// Owner is the user that owns an item.
type Owner struct {
	GivenName    string `json:"givenName"`
	FamilyName   string `json:"familyName"`
	EmailAddress string `json:"emailAddress"`
}

// Name joins the given and family names.
func (o Owner) Name() string {
	return strings.TrimSpace(o.GivenName + " " + o.FamilyName)
}

// Details is the nested artifact object. Keys are matched case-insensitively on decode,
// which covers both LastRefreshTime and lastRefreshTime.
type Details struct {
	StorageMode     int    `json:"storageMode"`
	DirectLakeMode  bool   `json:"directLakeMode"`
	CapacitySKU     string `json:"sharedFromEnterpriseCapacitySku"`
	LastRefreshTime string `json:"lastRefreshTime"`
	LastUpdatedDate string `json:"lastUpdatedDate"`
}

// Artifact is one DataHub search hit. Dates keep the service format,
// either ISO 8601 or OData /Date(ms)/.
type Artifact struct {
	ObjectID           string  `json:"objectId"`
	DisplayName        string  `json:"displayName"`
	Name               string  `json:"name"`
	WorkspaceName      string  `json:"workspaceName"`
	WorkspaceObjectID  string  `json:"workspaceObjectId"`
	LastVisitedTimeUTC string  `json:"lastVisitedTimeUTC"`
	LastRefreshTime    string  `json:"lastRefreshTime"`
	ModifiedDate       string  `json:"modifiedDate"`
	OwnerUser          Owner   `json:"ownerUser"`
	IsDiscoverable     *bool   `json:"isDiscoverable"`
	Details            Details `json:"artifact"`
}

// Title is the display name, falling back to the name.
func (a Artifact) Title() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Name
}

// RefreshTime returns the raw last data refresh. Notebooks have no refresh,
// so their last update is used instead.
func (a Artifact) RefreshTime() string {
	switch {
	case a.LastRefreshTime != "":
		return a.LastRefreshTime
	case a.Details.LastRefreshTime != "":
		return a.Details.LastRefreshTime
	default:
		return a.Details.LastUpdatedDate
	}
}

// StorageMode is Import, DirectQuery, DirectLake or Unknown.
func (a Artifact) StorageMode() string {
	switch {
	case a.Details.DirectLakeMode:
		return "DirectLake"
	case a.Details.StorageMode == 1:
		return "Import"
	case a.Details.StorageMode == 2:
		return "DirectQuery"
	default:
		return "Unknown"
	}
}

// Request selects one or more item types.
type Request struct {
	Types []string
	// WorkspaceID is a server-side filter on one workspace.
	WorkspaceID string
	// PageSize is capped at MaxPageSize.
	PageSize int
	// SinglePage stops after the first page.
	SinglePage bool
}

type filter struct {
	Type   string   `json:"datahubFilterType"`
	Values []string `json:"values"`
}

type payload struct {
	Filters               []filter `json:"filters"`
	HostFamily            int      `json:"hostFamily"`
	OrderBy               string   `json:"orderBy"`
	OrderDirection        string   `json:"orderDirection"`
	PageNumber            int      `json:"pageNumber"`
	PageSize              int      `json:"pageSize"`
	SupportedTypes        []string `json:"supportedTypes"`
	TridentSupportedTypes []string `json:"tridentSupportedTypes"`
}

func (r Request) pageSize() int {
	switch {
	case r.PageSize <= 0:
		return defaultPageSize
	case r.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return r.PageSize
	}
}

func (r Request) payload(page int) payload {
	p := payload{
		Filters:        []filter{},
		HostFamily:     hostFamily,
		OrderBy:        "Default",
		PageNumber:     page,
		PageSize:       r.pageSize(),
		SupportedTypes: r.Types,
	}
	for _, t := range r.Types {
		p.TridentSupportedTypes = append(p.TridentSupportedTypes, tridentName(t))
	}
	if r.WorkspaceID != "" {
		p.Filters = append(p.Filters, filter{Type: "workspace", Values: []string{r.WorkspaceID}})
	}
	return p
}

// Client calls the DataHub endpoint of one region.
type Client struct {
	api    *api.Client
	region string
	url    string
}

// New creates a read-only client for region.
func New(c *api.Client, region string) (*Client, error) {
	host, err := Host(region)
	if err != nil {
		return nil, err
	}
	if region == "" {
		region = DefaultRegion
	}
	return &Client{
		api:    c.ReadOnly(),
		region: strings.ToLower(region),
		url:    "https://" + host + "/" + artifactsEndpoint,
	}, nil
}

// Region returns the region the client calls.
func (c *Client) Region() string {
	return c.region
}

// SearchPage fetches one 1-indexed page.
func (c *Client) SearchPage(ctx context.Context, req Request, page int) ([]Artifact, error) {
	if len(req.Types) == 0 {
		return nil, errUtils.Build(fmt.Errorf("%w: no item type given", errUtils.ErrUnknownItemType)).
			WithHint("Run `fabkit datahub search --list-types` to see the known types").
			Err()
	}
	for _, t := range req.Types {
		if _, ok := LookupType(t); !ok {
			log.Warn("Unknown DataHub item type, sending it anyway", "type", t)
		}
	}

	start := time.Now()
	resp, err := c.api.Post(ctx, session.AudiencePowerBI, c.url, req.payload(page))
	if err != nil {
		return nil, err
	}
	items, err := decodeArtifacts(resp.Body)
	if err != nil {
		return nil, err
	}
	log.Debug("DataHub page", "region", c.region, "page", page, "items", len(items), "duration", time.Since(start))
	return items, nil
}

// Search pages through the results. The page number is the continuation token;
// a short page ends the sequence.
func (c *Client) Search(req Request) *api.Pager[Artifact] {
	return api.NewPager[Artifact](func(ctx context.Context, token string) ([]Artifact, string, error) {
		page := 1
		if token != "" {
			n, err := strconv.Atoi(token)
			if err != nil {
				return nil, "", fmt.Errorf("%w: page token %q", errUtils.ErrInvalidResponse, token)
			}
			page = n
		}
		items, err := c.SearchPage(ctx, req, page)
		if err != nil {
			return nil, "", err
		}
		if req.SinglePage || len(items) < req.pageSize() {
			return items, "", nil
		}
		return items, strconv.Itoa(page + 1), nil
	})
}

// SearchAll returns every page. No match is an empty slice.
func (c *Client) SearchAll(ctx context.Context, req Request) ([]Artifact, error) {
	items, err := c.Search(req).All(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Artifact{}
	}
	return items, nil
}

// decodeArtifacts reads the top-level array. Any other shape is an empty result.
func decodeArtifacts(body []byte) ([]Artifact, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: DataHub returned non-JSON output", errUtils.ErrInvalidResponse)
	}
	if !gjson.ParseBytes(body).IsArray() {
		return []Artifact{}, nil
	}
	var items []Artifact
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", errUtils.ErrInvalidResponse, err)
	}
	return items, nil
}
