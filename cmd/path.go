package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
)

type pathParts struct {
	Workspace string          `json:"workspace" yaml:"workspace"`
	Item      string          `json:"item" yaml:"item"`
	Type      fabric.ItemType `json:"type" yaml:"type"`
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Build and parse Workspace.Workspace/Item.Type paths",
	Args:  cobra.NoArgs,
}

var pathBuildCmd = &cobra.Command{
	Use:     "build <workspace> <item> <type>",
	Short:   "Print the path for a workspace, item and type",
	Example: `fabkit path build Sales "Sales Model" SemanticModel`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemType, err := fabric.ParseItemType(args[2])
		if err != nil {
			return err
		}
		p := fabric.NewPath(args[0], args[1], itemType)
		if quoted, _ := cmd.Flags().GetBool("quoted"); quoted {
			return data.Writeln(p.Quoted())
		}
		return data.Writeln(p.String())
	},
}

var pathParseCmd = &cobra.Command{
	Use:     "parse <path>",
	Short:   "Split a path into workspace, item and type",
	Example: `fabkit path parse "Sales.Workspace/Sales Model.SemanticModel" -f json`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		p, err := fabric.ParsePath(args[0])
		if err != nil {
			return err
		}
		return data.WriteFormatted(format, pathParts{Workspace: p.Workspace, Item: p.Item, Type: p.Type}, func() string {
			return fmt.Sprintf("Workspace: %s\nItem:      %s\nType:      %s\n", p.Workspace, p.Item, p.Type)
		})
	},
}

func init() {
	pathBuildCmd.Flags().Bool("quoted", false, "Quote the path when it contains spaces")
	pathParseCmd.Flags().StringP("format", "f", "", "Output format: json or yaml")
	pathCmd.AddCommand(pathBuildCmd, pathParseCmd)
	RootCmd.AddCommand(pathCmd)
}
