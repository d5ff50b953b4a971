package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/resolve"
)

type resolveOutput struct {
	Path          fabric.Path `json:"path" yaml:"path"`
	WorkspaceID   string      `json:"workspaceId" yaml:"workspaceId"`
	WorkspaceName string      `json:"workspaceName" yaml:"workspaceName"`
	ItemID        string      `json:"itemId" yaml:"itemId"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve an item path to workspace and item ids",
	Example: `fabkit resolve "Sales.Workspace/Sales Model.SemanticModel"
fabkit resolve "Sales.Workspace/Exec.Report" -f json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		path, err := fabric.ParsePath(args[0])
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		resolver := resolve.New(client)
		ws, item, exists, err := resolver.Lookup(cmd.Context(), path)
		if err != nil {
			return err
		}
		if !exists {
			return errUtils.Build(fmt.Errorf("%w: %s", errUtils.ErrItemNotFound, path)).
				WithHintf("Search for it with `fabkit search -t %s -n %q`", path.Type, path.Item).
				WithStage(errUtils.StageResolveItem).
				Err()
		}
		if item.ID == "" {
			ref, err := resolver.ResolveItem(cmd.Context(), path)
			if err != nil {
				return err
			}
			item.ID = ref.ItemID
		}

		out := resolveOutput{Path: path, WorkspaceID: ws.ID, WorkspaceName: ws.DisplayName, ItemID: item.ID}
		return data.WriteFormatted(format, out, func() string {
			return fmt.Sprintf("Workspace: %s (%s)\nItem:      %s (%s)\n", out.WorkspaceName, out.WorkspaceID, path.Item, out.ItemID)
		})
	},
}

func init() {
	resolveCmd.Flags().StringP("format", "f", "", "Output format: json or yaml")
	RootCmd.AddCommand(resolveCmd)
}
