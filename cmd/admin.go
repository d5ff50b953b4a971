package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/admin"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Read tenant workspaces and capacities with the admin APIs",
	Long:  `Admin commands are read-only and need the Fabric administrator role.`,
	Args:  cobra.NoArgs,
}

var adminWorkspacesCmd = &cobra.Command{
	Use:     "workspaces",
	Aliases: []string{"ws"},
	Short:   "List and inspect tenant workspaces",
	Args:    cobra.NoArgs,
}

var adminCapacitiesCmd = &cobra.Command{
	Use:   "capacities",
	Short: "List and inspect capacities",
	Args:  cobra.NoArgs,
}

// adminClient returns the admin client and the requested output format.
func adminClient(cmd *cobra.Command) (*admin.Client, string, error) {
	format, _ := cmd.Flags().GetString("format")
	client, err := newClient(cmd.Context())
	if err != nil {
		return nil, "", err
	}
	return admin.New(client), format, nil
}

func workspaceTable(workspaces []fabric.Workspace) string {
	if len(workspaces) == 0 {
		return "No workspaces found.\n"
	}
	rows := lo.Map(workspaces, func(w fabric.Workspace, _ int) []string {
		return []string{w.DisplayName, w.ID, w.Type, w.State, w.CapacityID}
	})
	return ui.Table([]string{"Name", "ID", "Type", "State", "Capacity"}, rows)
}

var adminWorkspacesListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List every workspace in the tenant",
	Example: "fabkit admin workspaces list --state Active --capacity-id 0f08...\nfabkit admin ws list -n Sales -f json",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter admin.WorkspaceFilter
		filter.State, _ = cmd.Flags().GetString("state")
		filter.Type, _ = cmd.Flags().GetString("type")
		filter.CapacityID, _ = cmd.Flags().GetString("capacity-id")
		filter.Name, _ = cmd.Flags().GetString("name")

		client, format, err := adminClient(cmd)
		if err != nil {
			return err
		}
		workspaces, err := client.Workspaces(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return data.WriteFormatted(format, workspaces, func() string { return workspaceTable(workspaces) })
	},
}

var adminWorkspacesGetCmd = &cobra.Command{
	Use:   "get <workspace-id>",
	Short: "Show one workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, format, err := adminClient(cmd)
		if err != nil {
			return err
		}
		ws, err := client.Workspace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return data.WriteFormatted(format, ws, func() string { return workspaceTable([]fabric.Workspace{ws}) })
	},
}

var adminWorkspacesUsersCmd = &cobra.Command{
	Use:   "users <workspace-id>",
	Short: "List the principals with access to a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, format, err := adminClient(cmd)
		if err != nil {
			return err
		}
		users, err := client.WorkspaceUsers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return data.WriteFormatted(format, users, func() string {
			if len(users) == 0 {
				return "No users found.\n"
			}
			rows := lo.Map(users, func(u admin.WorkspaceUser, _ int) []string {
				return []string{u.DisplayName, u.UserPrincipalName, u.Type, u.Role}
			})
			return ui.Table([]string{"Name", "UPN", "Type", "Role"}, rows)
		})
	},
}

var adminCapacitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every capacity in the tenant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, format, err := adminClient(cmd)
		if err != nil {
			return err
		}
		capacities, err := client.Capacities(cmd.Context())
		if err != nil {
			return err
		}
		return data.WriteFormatted(format, capacities, func() string {
			if len(capacities) == 0 {
				return "No capacities found.\n"
			}
			rows := lo.Map(capacities, func(c fabric.Capacity, _ int) []string {
				return []string{c.DisplayName, c.ID, c.SKU, c.State, c.Region}
			})
			return ui.Table([]string{"Name", "ID", "SKU", "State", "Region"}, rows)
		})
	},
}

var adminCapacitiesGetCmd = &cobra.Command{
	Use:   "get <capacity-id>",
	Short: "Show one capacity with its workloads and workspaces",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, format, err := adminClient(cmd)
		if err != nil {
			return err
		}
		capacity, err := client.Capacity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return data.WriteFormatted(format, capacity, func() string { return describeCapacity(capacity) })
	},
}

func describeCapacity(c fabric.Capacity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:   %s\nID:     %s\nSKU:    %s\nState:  %s\nRegion: %s\n", c.DisplayName, c.ID, c.SKU, c.State, c.Region)
	if len(c.Workloads) > 0 {
		rows := lo.Map(c.Workloads, func(w fabric.Workload, _ int) []string {
			memory := ""
			if w.MaxMemoryPercentage > 0 {
				memory = strconv.Itoa(w.MaxMemoryPercentage) + "%"
			}
			return []string{w.Name, w.State, memory}
		})
		b.WriteString("\nWorkloads\n")
		b.WriteString(ui.Table([]string{"Workload", "State", "Max memory"}, rows))
	}
	fmt.Fprintf(&b, "\nWorkspaces (%d)\n", len(c.Workspaces))
	for _, w := range c.Workspaces {
		fmt.Fprintf(&b, "  %s (%s)\n", w.DisplayName, w.ID)
	}
	return b.String()
}

var adminCapacitiesWorkspacesCmd = &cobra.Command{
	Use:   "workspaces <capacity-id>",
	Short: "List the workspaces assigned to a capacity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, format, err := adminClient(cmd)
		if err != nil {
			return err
		}
		workspaces, err := client.CapacityWorkspaces(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return data.WriteFormatted(format, workspaces, func() string {
			if len(workspaces) == 0 {
				return "No workspaces assigned.\n"
			}
			rows := lo.Map(workspaces, func(w fabric.WorkspaceRef, _ int) []string { return []string{w.DisplayName, w.ID} })
			return ui.Table([]string{"Name", "ID"}, rows)
		})
	},
}

func init() {
	adminCmd.PersistentFlags().StringP("format", "f", "table", "Output format: table, json or yaml")

	adminWorkspacesListCmd.Flags().String("state", "", "Only workspaces in this state, e.g. Active, Deleted")
	adminWorkspacesListCmd.Flags().String("type", "", "Only workspaces of this type, e.g. Workspace, Personal")
	adminWorkspacesListCmd.Flags().String("capacity-id", "", "Only workspaces on this capacity")
	adminWorkspacesListCmd.Flags().StringP("name", "n", "", "Only workspaces with this name")

	adminWorkspacesCmd.AddCommand(adminWorkspacesListCmd, adminWorkspacesGetCmd, adminWorkspacesUsersCmd)
	adminCapacitiesCmd.AddCommand(adminCapacitiesListCmd, adminCapacitiesGetCmd, adminCapacitiesWorkspacesCmd)
	adminCmd.AddCommand(adminWorkspacesCmd, adminCapacitiesCmd)
	RootCmd.AddCommand(adminCmd)
}
