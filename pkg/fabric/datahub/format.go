package datahub

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

// Format is a search output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatBrief    Format = "brief"
	FormatDetailed Format = "detailed"
)

// ParseFormat validates an output format. Empty is table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatBrief, FormatDetailed:
		return f, nil
	}
	return "", errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidFormat, s)).
		WithHint("Use table, json, brief or detailed").
		Err()
}

// Record is the cleaned JSON form of an artifact.
type Record struct {
	Name           string `json:"name"`
	Workspace      string `json:"workspace"`
	WorkspaceID    string `json:"workspaceId"`
	ID             string `json:"id"`
	LastVisited    string `json:"lastVisited,omitempty"`
	LastRefreshed  string `json:"lastRefreshed,omitempty"`
	LastModified   string `json:"lastModified,omitempty"`
	Owner          string `json:"owner,omitempty"`
	OwnerName      string `json:"ownerName,omitempty"`
	StorageMode    string `json:"storageMode"`
	CapacitySKU    string `json:"capacitySku,omitempty"`
	IsDiscoverable *bool  `json:"isDiscoverable,omitempty"`
}

// isoDate renders a service date as ISO 8601, or empty when it cannot be read.
func isoDate(raw string) string {
	t, ok := parseInstant(raw)
	if !ok {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ToRecord cleans a for JSON output.
func ToRecord(a Artifact) Record {
	return Record{
		Name:           a.Title(),
		Workspace:      a.WorkspaceName,
		WorkspaceID:    a.WorkspaceObjectID,
		ID:             a.ObjectID,
		LastVisited:    a.LastVisitedTimeUTC,
		LastRefreshed:  isoDate(a.RefreshTime()),
		LastModified:   isoDate(a.ModifiedDate),
		Owner:          a.OwnerUser.EmailAddress,
		OwnerName:      a.OwnerUser.Name(),
		StorageMode:    a.StorageMode(),
		CapacitySKU:    a.Details.CapacitySKU,
		IsDiscoverable: a.IsDiscoverable,
	}
}

// Render formats items. JSON is always a list, the text formats print a notice when empty.
func Render(items []Artifact, f Format) (string, error) {
	if f == FormatJSON {
		out, err := json.MarshalIndent(lo.Map(items, func(a Artifact, _ int) Record { return ToRecord(a) }), "", "  ")
		if err != nil {
			return "", fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
		}
		return string(out) + "\n", nil
	}
	if len(items) == 0 {
		return "No items found.\n", nil
	}

	switch f {
	case FormatBrief:
		var b strings.Builder
		for _, a := range items {
			fmt.Fprintf(&b, "%s/%s\n", a.WorkspaceName, a.Title())
		}
		return b.String(), nil
	case FormatDetailed:
		return renderDetailed(items), nil
	default:
		rows := lo.Map(items, func(a Artifact, _ int) []string {
			return []string{a.Title(), a.WorkspaceName, dateOnly(a.LastVisitedTimeUTC), a.OwnerUser.Name()}
		})
		return ui.Table([]string{"Name", "Workspace", "Last Visited", "Owner"}, rows), nil
	}
}

func dateOnly(raw string) string {
	t, ok := parseTimestamp(raw)
	if !ok {
		return ""
	}
	return t.Format(dateLayout)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func renderDetailed(items []Artifact) string {
	var b strings.Builder
	for _, a := range items {
		visited := a.LastVisitedTimeUTC
		if len(visited) > 19 {
			visited = visited[:19]
		}
		discoverable := "N/A"
		if a.IsDiscoverable != nil {
			discoverable = fmt.Sprint(*a.IsDiscoverable)
		}
		fmt.Fprintf(&b, "Name:         %s\n", a.Title())
		fmt.Fprintf(&b, "Workspace:    %s\n", orNA(a.WorkspaceName))
		fmt.Fprintf(&b, "ID:           %s\n", orNA(a.ObjectID))
		fmt.Fprintf(&b, "Last Visit:   %s\n", orNA(visited))
		fmt.Fprintf(&b, "Last Refresh: %s\n", orNA(isoDate(a.RefreshTime())))
		fmt.Fprintf(&b, "Owner:        %s <%s>\n", a.OwnerUser.Name(), orNA(a.OwnerUser.EmailAddress))
		fmt.Fprintf(&b, "Storage:      %s\n", a.StorageMode())
		fmt.Fprintf(&b, "Capacity:     %s\n", orNA(a.Details.CapacitySKU))
		fmt.Fprintf(&b, "Discoverable: %s\n", discoverable)
		b.WriteString(strings.Repeat("-", 60) + "\n")
	}
	return b.String()
}

// RenderTypes lists the known item types grouped by category.
func RenderTypes() string {
	var b strings.Builder
	b.WriteString("Use Model for semantic models, DataFlow for dataflows and SynapseNotebook for notebooks.\n\n")
	for _, group := range lo.PartitionBy(Types(), func(t TypeInfo) string { return t.Category }) {
		fmt.Fprintf(&b, "%s:\n", group[0].Category)
		for _, t := range group {
			fmt.Fprintf(&b, "  %-30s %s\n", t.Name, t.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderRegions lists the known regions and their hosts.
func RenderRegions() string {
	rows := lo.Map(Regions(), func(r Region, _ int) []string {
		name := r.Name
		if r.Default {
			name += " (default)"
		}
		return []string{name, r.Host}
	})
	return ui.Table([]string{"Region", "Host"}, rows)
}
