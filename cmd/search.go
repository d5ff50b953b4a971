package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/discovery"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/resolve"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
	"github.com/data-goblin/fabric-cli-plugin/pkg/retry"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

type searchOptions struct {
	query          discovery.Query
	limit          int
	singlePage     bool
	retryThrottled int
	format         string
}

type searchOutput struct {
	Items   []resolve.Resolved `json:"items" yaml:"items"`
	Skipped []resolve.Skipped  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find items of one type across every workspace",
	Long: `Search lists items of one type tenant-wide through the admin API and prints their paths.

The name filter is a case-sensitive substring match unless --ignore-case is set. The search needs
the Fabric administrator role. Throttled requests fail unless --retry-throttled allows retries.`,
	Example: "fabkit search -t SemanticModel\n" +
		"fabkit search -t Report -n Sales --ignore-case -f paths\n" +
		"fabkit search -t Lakehouse --single-page -f json",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseSearchOptions(cmd)
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		items, more, err := searchItems(cmd.Context(), discovery.New(client), opts)
		if err != nil {
			return err
		}
		resolved, skipped, err := resolve.NewWorkspaceNames(client).Paths(cmd.Context(), items)
		if err != nil {
			return err
		}
		for _, s := range skipped {
			ui.Warningf("Skipped %s (%s): %s", s.Item.Name, s.Item.ID, s.Reason)
		}
		if more {
			ui.Warningf("Only the first page was fetched; more items may exist")
		}
		return writeSearchOutput(opts.format, searchOutput{Items: resolved, Skipped: skipped})
	},
}

func parseSearchOptions(cmd *cobra.Command) (searchOptions, error) {
	var opts searchOptions
	typeName, _ := cmd.Flags().GetString("type")
	itemType, err := fabric.ParseItemType(typeName)
	if err != nil {
		return opts, err
	}
	opts.query.Type = itemType
	opts.query.NamePattern, _ = cmd.Flags().GetString("name")
	opts.query.IgnoreCase, _ = cmd.Flags().GetBool("ignore-case")
	opts.query.WorkspaceID, _ = cmd.Flags().GetString("workspace-id")
	opts.limit, _ = cmd.Flags().GetInt("limit")
	opts.singlePage, _ = cmd.Flags().GetBool("single-page")
	opts.retryThrottled, _ = cmd.Flags().GetInt("retry-throttled")
	opts.format, _ = cmd.Flags().GetString("format")

	if !lo.Contains([]string{"table", "json", "yaml", "paths"}, opts.format) {
		return opts, errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidFormat, opts.format)).
			WithHint("Use table, json, yaml or paths").
			Err()
	}
	if opts.limit < 0 || opts.retryThrottled < 0 {
		return opts, fmt.Errorf("%w: --limit and --retry-throttled cannot be negative", errUtils.ErrInvalidArgument)
	}
	return opts, nil
}

// searchItems pages through the results. Throttled pages are retried only when the caller asked for it.
func searchItems(ctx context.Context, client *discovery.Client, opts searchOptions) ([]fabric.Item, bool, error) {
	retryConfig := fabkitConfig.Retry
	retryConfig.MaxAttempts = opts.retryThrottled + 1
	throttled := func(err error) bool { return errors.Is(err, errUtils.ErrRateLimited) }

	pager := client.Search(opts.query)
	items := []fabric.Item{}
	for pager.More() {
		var page []fabric.Item
		err := retry.WithPredicate(ctx, &retryConfig, func() error {
			var err error
			page, err = pager.NextPage(ctx)
			if throttled(err) {
				log.Warn("Search was throttled", "page", pager.Pages()+1, "error", err)
			}
			return err
		}, throttled, retry.WithDelayHint(api.RetryAfter))
		if err != nil {
			return nil, false, err
		}
		items = append(items, page...)

		if opts.limit > 0 && len(items) >= opts.limit {
			return items[:opts.limit], pager.More(), nil
		}
		if opts.singlePage {
			return items, pager.More(), nil
		}
	}
	return items, false, nil
}

func writeSearchOutput(format string, out searchOutput) error {
	switch format {
	case "paths":
		lines := lo.Map(out.Items, func(r resolve.Resolved, _ int) string { return r.Path.String() })
		if len(lines) == 0 {
			return nil
		}
		return data.Writeln(strings.Join(lines, "\n"))
	case "json", "yaml":
		return data.WriteFormatted(format, out, nil)
	}
	if len(out.Items) == 0 {
		ui.Infof("No items found")
		return nil
	}
	rows := lo.Map(out.Items, func(r resolve.Resolved, _ int) []string {
		return []string{r.Path.Workspace, r.Path.Item, string(r.Item.Type), r.Item.ID}
	})
	return data.Write(ui.Table([]string{"Workspace", "Item", "Type", "ID"}, rows))
}

func init() {
	searchCmd.Flags().StringP("type", "t", "", "Item type to search for, e.g. SemanticModel, Report, Lakehouse")
	searchCmd.Flags().StringP("name", "n", "", "Substring of the item name")
	searchCmd.Flags().Bool("ignore-case", false, "Match the name case-insensitively")
	searchCmd.Flags().String("workspace-id", "", "Only search one workspace")
	searchCmd.Flags().Int("limit", 0, "Stop after this many items (0 means no limit)")
	searchCmd.Flags().Bool("single-page", false, "Fetch only the first page; the result may be incomplete")
	searchCmd.Flags().Int("retry-throttled", 0, "Retry throttled pages this many times, honoring Retry-After")
	searchCmd.Flags().StringP("format", "f", "table", "Output format: table, json, yaml or paths")
	_ = searchCmd.MarkFlagRequired("type")
	RootCmd.AddCommand(searchCmd)
}
