package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/datahub"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

var dataHubCmd = &cobra.Command{
	Use:   "datahub",
	Short: "Search the Power BI DataHub",
	Args:  cobra.NoArgs,
}

var dataHubSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search items the signed-in user can see, with usage metadata",
	Long: `Search calls the regional DataHub endpoint the Power BI portal uses. It works without admin
rights and returns last visit, refresh and storage mode data the Fabric APIs do not expose.

The endpoint is undocumented and may change. Filters are applied after download, so
combine them freely. Dates are YYYY-MM-DD.`,
	Example: `fabkit datahub search -t Model --not-visited-since 2025-01-01 --sort last-visited --asc
fabkit datahub search -t Model,Report -w Sales --format json
fabkit datahub search --list-types`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if listTypes, _ := flags.GetBool("list-types"); listTypes {
			return data.Write(datahub.RenderTypes())
		}
		if listRegions, _ := flags.GetBool("list-regions"); listRegions {
			return data.Write(datahub.RenderRegions())
		}

		types, _ := flags.GetStringSlice("type")
		if len(types) == 0 {
			return errUtils.Build(fmt.Errorf("%w: --type is required", errUtils.ErrInvalidArgument)).
				WithHint("Run `fabkit datahub search --list-types` to see the known types").
				Err()
		}
		filter, err := parseDataHubFilter(cmd)
		if err != nil {
			return err
		}
		formatName, _ := flags.GetString("format")
		format, err := datahub.ParseFormat(formatName)
		if err != nil {
			return err
		}
		sortName, _ := flags.GetString("sort")
		sortField, err := datahub.ParseSortField(sortName)
		if err != nil {
			return err
		}
		asc, _ := flags.GetBool("asc")
		limit, _ := flags.GetInt("limit")
		if limit < 0 {
			return fmt.Errorf("%w: --limit cannot be negative", errUtils.ErrInvalidArgument)
		}

		region, _ := flags.GetString("region")
		if region == "" {
			region = fabkitConfig.DataHub.Region
		}
		workspaceID, _ := flags.GetString("workspace-id")
		singlePage, _ := flags.GetBool("single-page")

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		hub, err := datahub.New(client, region)
		if err != nil {
			return err
		}
		items, err := hub.SearchAll(cmd.Context(), datahub.Request{
			Types:       types,
			WorkspaceID: workspaceID,
			PageSize:    fabkitConfig.DataHub.PageSize,
			SinglePage:  singlePage,
		})
		if err != nil {
			return err
		}

		found := len(items)
		items = filter.Apply(items)
		if sortField != "" {
			datahub.Sort(items, sortField, asc)
		}
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		if found > 0 && len(items) == 0 {
			ui.Infof("%d item(s) found, none matched the filters", found)
		}

		text, err := datahub.Render(items, format)
		if err != nil {
			return err
		}
		return data.Write(text)
	},
}

func parseDataHubFilter(cmd *cobra.Command) (datahub.Filter, error) {
	flags := cmd.Flags()
	var f datahub.Filter
	f.Name, _ = flags.GetString("name")
	f.Workspace, _ = flags.GetString("workspace")
	f.Owner, _ = flags.GetString("owner")
	f.CapacitySKU, _ = flags.GetString("capacity-sku")

	mode, _ := flags.GetString("storage-mode")
	var err error
	if f.StorageMode, err = datahub.ParseStorageMode(mode); err != nil {
		return f, err
	}

	dates := []struct {
		flag   string
		target *time.Time
	}{
		{"visited-since", &f.VisitedSince},
		{"not-visited-since", &f.NotVisitedSince},
		{"refreshed-since", &f.RefreshedSince},
		{"not-refreshed-since", &f.NotRefreshedSince},
		{"updated-since", &f.UpdatedSince},
		{"not-updated-since", &f.NotUpdatedSince},
	}
	for _, d := range dates {
		value, _ := flags.GetString(d.flag)
		if *d.target, err = datahub.ParseDate(value); err != nil {
			return f, errUtils.Build(err).WithHintf("--%s expects YYYY-MM-DD", d.flag).Err()
		}
	}
	return f, nil
}

func init() {
	flags := dataHubSearchCmd.Flags()
	flags.StringSliceP("type", "t", nil, "DataHub item types, e.g. Model, Report, Lakehouse (repeatable or comma separated)")
	flags.Bool("list-types", false, "List the known item types and exit")
	flags.Bool("list-regions", false, "List the known regions and exit")
	flags.String("region", "", "DataHub region, e.g. west-europe (defaults to the configured region)")
	flags.String("workspace-id", "", "Only search one workspace (server-side)")
	flags.Bool("single-page", false, "Fetch only the first page; the result may be incomplete")

	flags.StringP("name", "n", "", "Name contains this text")
	flags.StringP("workspace", "w", "", "Workspace name contains this text")
	flags.String("owner", "", "Owner name or email contains this text")
	flags.String("storage-mode", "", "Storage mode: "+strings.Join([]string{datahub.ModeImport, datahub.ModeDirectQuery, datahub.ModeDirectLake}, ", "))
	flags.String("capacity-sku", "", "Capacity SKU, e.g. F64")
	flags.String("visited-since", "", "Last visited on or after this date")
	flags.String("not-visited-since", "", "Last visited before this date")
	flags.String("refreshed-since", "", "Last refreshed on or after this date")
	flags.String("not-refreshed-since", "", "Last refreshed before this date")
	flags.String("updated-since", "", "Last modified on or after this date")
	flags.String("not-updated-since", "", "Last modified before this date")

	flags.String("sort", "", "Sort by name, workspace, owner, last-visited, last-refreshed or last-modified")
	flags.Bool("asc", false, "Sort ascending (descending by default)")
	flags.Int("limit", 0, "Show at most this many items (0 means all)")
	flags.String("format", "table", "Output format: table, json, brief or detailed")

	dataHubCmd.AddCommand(dataHubSearchCmd)
	RootCmd.AddCommand(dataHubCmd)
}
