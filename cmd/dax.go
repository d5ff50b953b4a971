package cmd

import (
	"github.com/spf13/cobra"

	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/dax"
	"github.com/data-goblin/fabric-cli-plugin/pkg/filesystem"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

var daxCmd = &cobra.Command{
	Use:   "dax <model-path>",
	Short: "Run a DAX query against a semantic model",
	Long: `Runs one DAX query through the executeQueries API and prints the result.

The model path may omit the .SemanticModel suffix. The query must be an EVALUATE statement.
Blank values are dropped from JSON rows unless --include-nulls is set.`,
	Example: `fabkit dax "Sales.Workspace/Sales Model" -q "EVALUATE TOPN(10, 'Date')"
fabkit dax "Sales.Workspace/Sales Model.SemanticModel" -q "EVALUATE Sales" --format csv -o sales.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		formatName, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		includeNulls, _ := cmd.Flags().GetBool("include-nulls")

		format, err := dax.ParseFormat(formatName)
		if err != nil {
			return err
		}
		if err := dax.ValidateQuery(query); err != nil {
			return err
		}
		path, err := fabric.ParsePathWithDefault(args[0], fabric.ItemTypeSemanticModel)
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		result, err := dax.New(client).Execute(cmd.Context(), dax.Request{
			Path:         path,
			Query:        query,
			Format:       format,
			IncludeNulls: includeNulls,
		})
		if err != nil {
			return err
		}
		text, err := dax.Render(result, format)
		if err != nil {
			return err
		}

		if output == "" {
			return data.Write(text)
		}
		if err := filesystem.WriteOutput(output, []byte(text)); err != nil {
			return err
		}
		ui.Successf("Wrote %d row(s) to %s", result.RowCount(), output)
		return nil
	},
}

func init() {
	daxCmd.Flags().StringP("query", "q", "", "DAX query to run")
	daxCmd.Flags().String("format", "table", "Output format: table, csv or json")
	daxCmd.Flags().StringP("output", "o", "", "Write the result to this file instead of stdout")
	daxCmd.Flags().Bool("include-nulls", false, "Keep blank values in JSON output")
	_ = daxCmd.MarkFlagRequired("query")
	RootCmd.AddCommand(daxCmd)
}
