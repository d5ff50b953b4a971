package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/directlake"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

var directLakeCmd = &cobra.Command{
	Use:   "directlake",
	Short: "Create Direct Lake semantic models",
	Args:  cobra.NoArgs,
}

var directLakeCreateCmd = &cobra.Command{
	Use:   "create <lakehouse-path> <model-path>",
	Short: "Create a Direct Lake model over one lakehouse table",
	Long: `Creates a new semantic model in Direct Lake mode with one table read from the lakehouse.

The destination must not exist; existing models are never overwritten. The model is created
in the destination workspace and left there. Nothing is retried and nothing is cleaned up on
failure. This is the only fabkit command that changes the tenant, so it asks for confirmation
unless --yes is given.`,
	Example: `fabkit directlake create "Bronze.Workspace/Sales.Lakehouse" "Gold.Workspace/Sales DL.SemanticModel" -t dbo.sales`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tableName, _ := cmd.Flags().GetString("table")
		yes, _ := cmd.Flags().GetBool("yes")
		format, _ := cmd.Flags().GetString("format")

		table, err := directlake.ParseTable(tableName)
		if err != nil {
			return err
		}
		source, err := fabric.ParsePathWithDefault(args[0], fabric.ItemTypeLakehouse)
		if err != nil {
			return err
		}
		dest, err := fabric.ParsePathWithDefault(args[1], fabric.ItemTypeSemanticModel)
		if err != nil {
			return err
		}
		req := directlake.Request{Source: source, Destination: dest, Table: table}
		if err := req.Validate(); err != nil {
			return err
		}

		if err := confirmCreate(req, yes); err != nil {
			return err
		}

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		schemas, err := schemaSource()
		if err != nil {
			return err
		}
		renderer, err := directlake.NewRenderer()
		if err != nil {
			return err
		}

		result, err := directlake.NewCreator(client, schemas, publisher(client), renderer).Create(cmd.Context(), req)
		if err != nil {
			return err
		}
		return data.WriteFormatted(format, result, func() string {
			ui.Successf("Created %s", result.Model)
			columns := lo.Map(result.Columns, func(c directlake.Column, _ int) string { return c.Name })
			return fmt.Sprintf("Model:   %s\nItem ID: %s\nTable:   %s\nColumns: %s\nRemove:  %s\n",
				result.Model, result.ItemID, result.Table, strings.Join(columns, ", "), result.Cleanup)
		})
	},
}

func confirmCreate(req directlake.Request, yes bool) error {
	if yes {
		return nil
	}
	if !ui.IsInteractive() {
		return errUtils.Build(errUtils.ErrConfirmationRequired).
			WithHint("Pass --yes to create the model without a prompt").
			Err()
	}
	ok, err := ui.Confirm(
		fmt.Sprintf("Create %s?", req.Destination),
		fmt.Sprintf("Direct Lake model over %s in %s", req.Table, req.Source),
	)
	if err != nil {
		return err
	}
	if !ok {
		return errUtils.ErrAborted
	}
	return nil
}

func init() {
	directLakeCreateCmd.Flags().StringP("table", "t", "", "Lakehouse table as schema.table")
	directLakeCreateCmd.Flags().BoolP("yes", "y", false, "Create without asking for confirmation")
	directLakeCreateCmd.Flags().StringP("format", "f", "", "Output format: json or yaml")
	_ = directLakeCreateCmd.MarkFlagRequired("table")
	directLakeCmd.AddCommand(directLakeCreateCmd)
	RootCmd.AddCommand(directLakeCmd)
}
