package datahub

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

const dateLayout = "2006-01-02"

// Storage modes accepted by Filter.StorageMode.
const (
	ModeImport      = "import"
	ModeDirectQuery = "directquery"
	ModeDirectLake  = "directlake"
)

// Filter narrows search results on the client. Zero values are ignored.
// Text filters are case-insensitive substring matches. Date bounds are inclusive
// for Since and exclusive for NotSince; items without the date never match a date filter.
type Filter struct {
	Name      string
	Workspace string
	Owner     string

	VisitedSince      time.Time
	NotVisitedSince   time.Time
	RefreshedSince    time.Time
	NotRefreshedSince time.Time
	UpdatedSince      time.Time
	NotUpdatedSince   time.Time

	StorageMode string
	CapacitySKU string
}

// ParseDate parses YYYY-MM-DD. An empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errUtils.ErrInvalidDate, s)
	}
	return t, nil
}

// ParseStorageMode validates a storage mode. An empty string matches every mode.
func ParseStorageMode(s string) (string, error) {
	mode := strings.ToLower(s)
	switch mode {
	case "", ModeImport, ModeDirectQuery, ModeDirectLake:
		return mode, nil
	}
	return "", errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidMode, s)).
		WithHintf("Use one of %s, %s or %s", ModeImport, ModeDirectQuery, ModeDirectLake).
		Err()
}

// parseTimestamp reads an OData /Date(ms)/ value or the date part of an ISO timestamp.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if strings.HasPrefix(s, "/Date(") && strings.HasSuffix(s, ")/") {
		ms, err := strconv.ParseInt(s[len("/Date("):len(s)-len(")/")], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// within applies a since / not-since pair to the raw date.
func within(raw string, since, notSince time.Time) bool {
	if since.IsZero() && notSince.IsZero() {
		return true
	}
	t, ok := parseTimestamp(raw)
	if !ok {
		return false
	}
	if !since.IsZero() && t.Before(since) {
		return false
	}
	if !notSince.IsZero() && !t.Before(notSince) {
		return false
	}
	return true
}

// Match reports whether a satisfies every set filter.
func (f Filter) Match(a Artifact) bool {
	if f.Name != "" && !containsFold(a.DisplayName, f.Name) && !containsFold(a.Name, f.Name) {
		return false
	}
	if f.Workspace != "" && !containsFold(a.WorkspaceName, f.Workspace) {
		return false
	}
	if f.Owner != "" && !containsFold(a.OwnerUser.EmailAddress, f.Owner) &&
		!containsFold(a.OwnerUser.GivenName, f.Owner) && !containsFold(a.OwnerUser.FamilyName, f.Owner) {
		return false
	}
	if !within(a.LastVisitedTimeUTC, f.VisitedSince, f.NotVisitedSince) {
		return false
	}
	if !within(a.RefreshTime(), f.RefreshedSince, f.NotRefreshedSince) {
		return false
	}
	if !within(a.ModifiedDate, f.UpdatedSince, f.NotUpdatedSince) {
		return false
	}
	switch strings.ToLower(f.StorageMode) {
	case ModeImport:
		if a.Details.StorageMode != 1 {
			return false
		}
	case ModeDirectQuery:
		if a.Details.StorageMode != 2 {
			return false
		}
	case ModeDirectLake:
		if !a.Details.DirectLakeMode {
			return false
		}
	}
	if f.CapacitySKU != "" && !containsFold(a.Details.CapacitySKU, f.CapacitySKU) {
		return false
	}
	return true
}

// Apply keeps the items that match, in order.
func (f Filter) Apply(items []Artifact) []Artifact {
	return lo.Filter(items, func(a Artifact, _ int) bool { return f.Match(a) })
}

// SortField names a sort key.
type SortField string

const (
	SortName          SortField = "name"
	SortWorkspace     SortField = "workspace"
	SortLastVisited   SortField = "last-visited"
	SortLastRefreshed SortField = "last-refreshed"
	SortLastModified  SortField = "last-modified"
	SortOwner         SortField = "owner"
)

var sortFields = []SortField{SortName, SortWorkspace, SortLastVisited, SortLastRefreshed, SortLastModified, SortOwner}

// ParseSortField validates a sort key. An empty string keeps service order.
func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return "", nil
	}
	if f := SortField(strings.ToLower(s)); lo.Contains(sortFields, f) {
		return f, nil
	}
	names := lo.Map(sortFields, func(f SortField, _ int) string { return string(f) })
	return "", errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidSort, s)).
		WithHintf("Sort by one of: %s", strings.Join(names, ", ")).
		Err()
}

// Sort orders items in place by field, descending unless asc. Ties keep service order.
// Dates compare as instants; items without a date sort as the oldest.
func Sort(items []Artifact, field SortField, asc bool) {
	if field == "" {
		return
	}
	key := sortKey(field)
	slices.SortStableFunc(items, func(a, b Artifact) int {
		c := key(a, b)
		if asc {
			return c
		}
		return -c
	})
}

func sortKey(field SortField) func(a, b Artifact) int {
	text := func(get func(Artifact) string) func(a, b Artifact) int {
		return func(a, b Artifact) int { return cmp.Compare(strings.ToLower(get(a)), strings.ToLower(get(b))) }
	}
	date := func(get func(Artifact) string) func(a, b Artifact) int {
		return func(a, b Artifact) int {
			ta, _ := parseInstant(get(a))
			tb, _ := parseInstant(get(b))
			return ta.Compare(tb)
		}
	}
	switch field {
	case SortWorkspace:
		return text(func(a Artifact) string { return a.WorkspaceName })
	case SortLastVisited:
		return date(func(a Artifact) string { return a.LastVisitedTimeUTC })
	case SortLastRefreshed:
		return date(Artifact.RefreshTime)
	case SortLastModified:
		return date(func(a Artifact) string { return a.ModifiedDate })
	case SortOwner:
		return text(func(a Artifact) string { return a.OwnerUser.EmailAddress })
	default:
		return text(Artifact.Title)
	}
}

// parseInstant keeps the time of day where the value has one.
func parseInstant(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t, true
	}
	return parseTimestamp(s)
}
