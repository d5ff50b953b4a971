package fabric

// Item is one Fabric object as returned by the list and admin APIs.
type Item struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Type        ItemType `json:"type" yaml:"type"`
	WorkspaceID string   `json:"workspaceId" yaml:"workspaceId"`
	CapacityID  string   `json:"capacityId,omitempty" yaml:"capacityId,omitempty"`
	State       string   `json:"state,omitempty" yaml:"state,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Workspace is a container of items.
type Workspace struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	State       string `json:"state,omitempty" yaml:"state,omitempty"`
	CapacityID  string `json:"capacityId,omitempty" yaml:"capacityId,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
}

// WorkspaceRef is a workspace as listed under a capacity.
type WorkspaceRef struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// Capacity is a compute allocation workspaces are assigned to.
type Capacity struct {
	ID          string         `json:"id" yaml:"id"`
	DisplayName string         `json:"displayName" yaml:"displayName"`
	SKU         string         `json:"sku,omitempty" yaml:"sku,omitempty"`
	State       string         `json:"state,omitempty" yaml:"state,omitempty"`
	Region      string         `json:"region,omitempty" yaml:"region,omitempty"`
	Workspaces  []WorkspaceRef `json:"workspaces,omitempty" yaml:"workspaces,omitempty"`
	Workloads   []Workload     `json:"workloads,omitempty" yaml:"workloads,omitempty"`
}

// Workload is the configuration of one workload on a capacity.
type Workload struct {
	Name                string `json:"name" yaml:"name"`
	State               string `json:"state" yaml:"state"`
	MaxMemoryPercentage int    `json:"maxMemoryPercentageSetByUser,omitempty" yaml:"maxMemoryPercentageSetByUser,omitempty"`
}

// ItemRef identifies a resolved item by its IDs.
type ItemRef struct {
	WorkspaceID string   `json:"workspaceId" yaml:"workspaceId"`
	ItemID      string   `json:"itemId" yaml:"itemId"`
	Type        ItemType `json:"type" yaml:"type"`
	Path        Path     `json:"path" yaml:"path"`
}
