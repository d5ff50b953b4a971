package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	cfg "github.com/data-goblin/fabric-cli-plugin/pkg/config"
	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

type authStatus struct {
	Backend  string            `json:"backend" yaml:"backend"`
	Provider string            `json:"provider" yaml:"provider"`
	Identity *session.Identity `json:"identity,omitempty" yaml:"identity,omitempty"`
	Details  string            `json:"details,omitempty" yaml:"details,omitempty"`
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Show or establish the Fabric sign-in",
	Args:  cobra.NoArgs,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who fabkit is signed in as",
	Long: `Acquires a session with the configured backend and prints the signed-in identity.

With the cli backend the fab CLI owns the login and its own status output is shown.`,
	Example: "fabkit auth status\nfabkit auth status --backend rest -f json",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		b, err := connect(cmd.Context())
		if err != nil {
			return err
		}

		status := authStatus{Backend: fabkitConfig.Backend, Provider: b.session.Provider()}
		if id, ok := b.session.Identity(); ok {
			status.Identity = &id
		}
		if b.cli != nil {
			if status.Details, err = b.cli.AuthStatus(cmd.Context()); err != nil {
				return err
			}
		}

		return data.WriteFormatted(format, status, func() string {
			text := fmt.Sprintf("Backend:  %s\nProvider: %s\n", status.Backend, status.Provider)
			if status.Identity != nil {
				text += fmt.Sprintf("User:     %s\nTenant:   %s\nExpires:  %s\n",
					status.Identity.User, status.Identity.TenantID, status.Identity.ExpiresOn.Format(time.RFC3339))
			}
			if status.Details != "" {
				text += "\n" + status.Details + "\n"
			}
			return text
		})
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Fabric",
	Long: `With the cli backend this runs the interactive 'fab auth login'. With the rest backend it
acquires a token with the configured Azure AD credential, which may open a browser or print a
device code.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fabkitConfig.Backend == cfg.BackendCLI {
			if !ui.IsInteractive() {
				return errUtils.Build(errUtils.ErrNotInteractive).
					WithHint("Run `fab auth login` in a terminal, or use the rest backend with a service principal").
					Err()
			}
			if err := fabCLI().Login(cmd.Context()); err != nil {
				return err
			}
		}

		b, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if id, ok := b.session.Identity(); ok {
			ui.Successf("Signed in as %s", id.User)
			return nil
		}
		ui.Successf("Signed in with %s", b.session.Provider())
		return nil
	},
}

func init() {
	authStatusCmd.Flags().StringP("format", "f", "", "Output format: json or yaml")
	authCmd.AddCommand(authStatusCmd, authLoginCmd)
	RootCmd.AddCommand(authCmd)
}
