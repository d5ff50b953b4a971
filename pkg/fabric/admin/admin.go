// Package admin lists workspaces and capacities tenant-wide. Every call needs the
// Fabric administrator role.
package admin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// WorkspaceFilter narrows admin/workspaces server-side. Empty fields are not sent.
type WorkspaceFilter struct {
	State      string
	Type       string
	CapacityID string
	Name       string
}

func (f WorkspaceFilter) values() url.Values {
	v := url.Values{}
	for key, value := range map[string]string{"state": f.State, "type": f.Type, "capacityId": f.CapacityID, "name": f.Name} {
		if value != "" {
			v.Set(key, value)
		}
	}
	return v
}

type adminWorkspace struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	State      string `json:"state"`
	CapacityID string `json:"capacityId"`
}

func (w adminWorkspace) workspace() fabric.Workspace {
	return fabric.Workspace{ID: w.ID, DisplayName: w.Name, Type: w.Type, State: w.State, CapacityID: w.CapacityID}
}

// WorkspaceUser is a principal with a role on a workspace.
type WorkspaceUser struct {
	ID                string `json:"id" yaml:"id"`
	DisplayName       string `json:"displayName" yaml:"displayName"`
	Type              string `json:"type" yaml:"type"`
	UserPrincipalName string `json:"userPrincipalName,omitempty" yaml:"userPrincipalName,omitempty"`
	Role              string `json:"role" yaml:"role"`
}

type accessDetail struct {
	Principal struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Type        string `json:"type"`
		UserDetails struct {
			UserPrincipalName string `json:"userPrincipalName"`
		} `json:"userDetails"`
	} `json:"principal"`
	WorkspaceAccessDetails struct {
		WorkspaceRole string `json:"workspaceRole"`
	} `json:"workspaceAccessDetails"`
}

type capacityWorkspace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Client calls the admin APIs.
type Client struct {
	api *api.Client
}

// New creates a read-only admin client.
func New(c *api.Client) *Client {
	return &Client{api: c.ReadOnly()}
}

// Workspaces lists every workspace in the tenant that passes f.
func (c *Client) Workspaces(ctx context.Context, f WorkspaceFilter) ([]fabric.Workspace, error) {
	listed, err := api.ListPager[adminWorkspace](c.api, session.AudienceFabric, "admin/workspaces", f.values(), "workspaces").All(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("Listed workspaces", "count", len(listed))
	return lo.Map(listed, func(w adminWorkspace, _ int) fabric.Workspace { return w.workspace() }), nil
}

// Workspace returns one workspace.
func (c *Client) Workspace(ctx context.Context, id string) (fabric.Workspace, error) {
	var w adminWorkspace
	err := c.api.GetJSON(ctx, session.AudienceFabric, "admin/workspaces/"+id, nil, &w)
	if errors.Is(err, errUtils.ErrNotFound) {
		return fabric.Workspace{}, fmt.Errorf("%w: %s", errUtils.ErrWorkspaceNotFound, id)
	}
	if err != nil {
		return fabric.Workspace{}, err
	}
	return w.workspace(), nil
}

// WorkspaceUsers lists the principals with access to a workspace.
func (c *Client) WorkspaceUsers(ctx context.Context, id string) ([]WorkspaceUser, error) {
	details, err := api.ListPager[accessDetail](c.api, session.AudienceFabric, "admin/workspaces/"+id+"/users", nil, "accessDetails").All(ctx)
	if errors.Is(err, errUtils.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", errUtils.ErrWorkspaceNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return lo.Map(details, func(d accessDetail, _ int) WorkspaceUser {
		return WorkspaceUser{
			ID:                d.Principal.ID,
			DisplayName:       d.Principal.DisplayName,
			Type:              d.Principal.Type,
			UserPrincipalName: d.Principal.UserDetails.UserPrincipalName,
			Role:              d.WorkspaceAccessDetails.WorkspaceRole,
		}
	}), nil
}

// Capacities lists every capacity in the tenant.
func (c *Client) Capacities(ctx context.Context) ([]fabric.Capacity, error) {
	capacities, err := api.ListPager[fabric.Capacity](c.api, session.AudienceFabric, "admin/capacities", nil, "value").All(ctx)
	if err != nil {
		return nil, err
	}
	if capacities == nil {
		capacities = []fabric.Capacity{}
	}
	return capacities, nil
}

// Capacity returns one capacity with its workload configuration and assigned workspaces.
func (c *Client) Capacity(ctx context.Context, id string) (fabric.Capacity, error) {
	var capacity fabric.Capacity
	err := c.api.GetJSON(ctx, session.AudienceFabric, "admin/capacities/"+id, nil, &capacity)
	if errors.Is(err, errUtils.ErrNotFound) {
		return fabric.Capacity{}, fmt.Errorf("%w: capacity %s", errUtils.ErrNotFound, id)
	}
	if err != nil {
		return fabric.Capacity{}, err
	}

	workspaces, err := c.CapacityWorkspaces(ctx, id)
	if err != nil {
		return capacity, err
	}
	capacity.Workspaces = workspaces
	return capacity, nil
}

// CapacityWorkspaces lists the workspaces assigned to a capacity.
func (c *Client) CapacityWorkspaces(ctx context.Context, id string) ([]fabric.WorkspaceRef, error) {
	listed, err := api.ListPager[capacityWorkspace](c.api, session.AudienceFabric, "admin/capacities/"+id+"/workspaces", nil, "value").All(ctx)
	if errors.Is(err, errUtils.ErrNotFound) {
		return nil, fmt.Errorf("%w: capacity %s", errUtils.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return lo.Map(listed, func(w capacityWorkspace, _ int) fabric.WorkspaceRef {
		name := w.DisplayName
		if name == "" {
			name = w.Name
		}
		return fabric.WorkspaceRef{ID: w.ID, DisplayName: strings.TrimSpace(name)}
	}), nil
}
