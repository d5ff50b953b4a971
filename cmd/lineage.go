package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/lineage"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

var lineageCmd = &cobra.Command{
	Use:   "lineage <path>",
	Short: "List the upstream sources an item's definition refers to",
	Long: `Lineage reads the item definition and reports every reference to an upstream item or data
source: models and their data sources or lakehouses, reports and their models, notebooks and their
default lakehouse.

Edges are candidates. Structured parses have high confidence, plain keyword hits low confidence.
--verify looks referenced items up again and marks the edges it could confirm. --chain walks
upstream through every item it can trace.`,
	Example: `fabkit lineage "Sales.Workspace/Exec.Report" --verify
fabkit lineage "Sales.Workspace/Exec.Report" --chain --depth 3 -f json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		verify, _ := cmd.Flags().GetBool("verify")
		chain, _ := cmd.Flags().GetBool("chain")
		depth, _ := cmd.Flags().GetInt("depth")

		path, err := fabric.ParsePath(args[0])
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		tracer := lineage.NewTracer(client)

		if chain {
			result, err := tracer.Chain(cmd.Context(), path, depth)
			if err != nil {
				return err
			}
			return data.WriteFormatted(format, result, func() string { return renderChain(result) })
		}

		result, err := tracer.Trace(cmd.Context(), path)
		if err != nil {
			return err
		}
		if verify {
			if err := tracer.Verify(cmd.Context(), &result); err != nil {
				return err
			}
		}
		return data.WriteFormatted(format, result, func() string { return renderLineage(result) })
	},
}

func describeTarget(r lineage.Reference) string {
	switch {
	case r.Name != "" && r.ID != "":
		return fmt.Sprintf("%s (%s)", r.Name, r.ID)
	case r.Name != "":
		return r.Name
	case r.ID != "":
		return r.ID
	case r.Server != "":
		parts := lo.Compact([]string{r.Server, r.Database, r.Schema, r.Table})
		return strings.Join(parts, "/")
	case r.Table != "":
		return strings.Join(lo.Compact([]string{r.Schema, r.Table}), ".")
	}
	return r.Expression
}

func renderLineage(r lineage.Result) string {
	header := fmt.Sprintf("%s: %s\n", r.Item, r.Status)
	switch r.Status {
	case lineage.StatusUnsupported:
		return header + r.Reason + "\n"
	case lineage.StatusNoneFound:
		return header + "The definition was searched and refers to no upstream source.\n"
	}

	rows := lo.Map(r.Edges, func(e lineage.Edge, _ int) []string {
		return []string{
			string(e.Kind),
			e.Target.Kind,
			describeTarget(e.Target),
			e.File + ":" + strconv.Itoa(e.Line),
			string(e.Confidence),
			strconv.FormatBool(e.Verified),
		}
	})
	out := header + ui.Table([]string{"Kind", "Target", "Reference", "Location", "Confidence", "Verified"}, rows)
	if len(r.Failed) > 0 {
		ui.Warningf("Could not decode %d definition part(s): %s", len(r.Failed), strings.Join(r.Failed, ", "))
	}
	return out
}

func renderChain(c lineage.Chain) string {
	names := map[string]string{}
	for _, n := range c.Nodes {
		switch {
		case !n.Path.IsZero():
			names[n.Key] = n.Path.String()
		case n.Reference != nil:
			names[n.Key] = n.Reference.Kind + " " + describeTarget(*n.Reference)
		default:
			names[n.Key] = n.Key
		}
	}
	if len(c.Links) == 0 {
		lines := lo.Map(c.Nodes, func(n lineage.Node, _ int) string { return names[n.Key] + " (" + string(n.Status) + ")" })
		return strings.Join(lines, "\n") + "\nNo upstream links found.\n"
	}
	rows := lo.Map(c.Links, func(l lineage.Link, _ int) []string {
		return []string{names[l.From], string(l.Kind), names[l.To], strconv.FormatBool(l.Verified)}
	})
	return ui.Table([]string{"From", "Kind", "To", "Verified"}, rows)
}

func init() {
	lineageCmd.Flags().Bool("verify", false, "Look referenced items up and mark confirmed edges")
	lineageCmd.Flags().Bool("chain", false, "Walk upstream through every traceable item")
	lineageCmd.Flags().Int("depth", 3, "Maximum hops for --chain")
	lineageCmd.Flags().StringP("format", "f", "table", "Output format: table, json or yaml")
	RootCmd.AddCommand(lineageCmd)
}
