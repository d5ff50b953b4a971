package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
)

var apiCmd = &cobra.Command{
	Use:   "api <endpoint>",
	Short: "Send a read-only GET to the Fabric or Power BI API",
	Long: `Sends a GET request to an endpoint relative to the API base URL and prints the JSON body.

Only GET is supported. Use -q with a gjson path to select part of the response.`,
	Example: `fabkit api workspaces -q "value.#.displayName"
fabkit api groups -A powerbi
fabkit api "admin/items?type=Report" -q "itemEntities.#.name"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		audienceName, _ := cmd.Flags().GetString("audience")
		method, _ := cmd.Flags().GetString("method")
		selector, _ := cmd.Flags().GetString("query")

		if !strings.EqualFold(method, "GET") {
			return errUtils.Build(fmt.Errorf("%w: method %s", errUtils.ErrInvalidArgument, strings.ToUpper(method))).
				WithHint("fabkit api is read-only; use `fab api` to send other methods").
				Err()
		}
		var audience session.Audience
		switch strings.ToLower(audienceName) {
		case "fabric", "":
			audience = session.AudienceFabric
		case "powerbi":
			audience = session.AudiencePowerBI
		default:
			return fmt.Errorf("%w: audience %q, use fabric or powerbi", errUtils.ErrInvalidArgument, audienceName)
		}

		endpoint, rawQuery, _ := strings.Cut(strings.TrimPrefix(args[0], "/"), "?")
		query, err := url.ParseQuery(rawQuery)
		if err != nil {
			return fmt.Errorf("%w: query string %q: %v", errUtils.ErrInvalidArgument, rawQuery, err)
		}

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		resp, err := client.ReadOnly().Get(cmd.Context(), audience, endpoint, query)
		if err != nil {
			return err
		}

		if selector != "" {
			return data.Writeln(resp.Get(selector).String())
		}
		return data.Writeln(strings.TrimRight(string(resp.Body), "\n"))
	},
}

func init() {
	apiCmd.Flags().StringP("audience", "A", "fabric", "API to call: fabric or powerbi")
	apiCmd.Flags().StringP("method", "X", "GET", "HTTP method; only GET is allowed")
	apiCmd.Flags().StringP("query", "q", "", "gjson path selecting part of the response")
	RootCmd.AddCommand(apiCmd)
}
