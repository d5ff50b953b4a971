package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	mcpserver "github.com/data-goblin/fabric-cli-plugin/cmd/mcp-server"
	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	cfg "github.com/data-goblin/fabric-cli-plugin/pkg/config"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
	"github.com/data-goblin/fabric-cli-plugin/pkg/ui"
)

// fabkitConfig is loaded once per invocation in PersistentPreRunE.
var fabkitConfig schema.FabkitConfiguration

// logCloser releases the log file opened by logger.Setup.
var logCloser io.Closer

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "fabkit",
	Short: "Discover, inspect and query Microsoft Fabric and Power BI items",
	Long: `fabkit finds items across every workspace of a Fabric tenant, resolves workspace and item names,
traces lineage between reports, semantic models and lakehouses, runs DAX queries, exports semantic
models and downloads whole workspaces.

It talks to Fabric through the fab CLI (backend: cli) or directly over HTTPS with an Azure AD
token (backend: rest).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Determine if the command is a help command or if the help flag is set.
		isHelpRequested := cmd.Name() == "help" || cmd.Flags().Changed("help")
		cmd.SilenceUsage = !isHelpRequested
		cmd.SilenceErrors = true

		return initConfig(cmd)
	},
}

// Execute runs the command tree. It is called by main.main().
func Execute() error {
	return RootCmd.Execute()
}

// Cleanup releases resources held by the current invocation.
func Cleanup() {
	errUtils.CloseSentry()
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	resetClients()
}

// FormatterConfig returns the error formatter settings from the loaded configuration.
func FormatterConfig() errUtils.FormatterConfig {
	c := errUtils.DefaultFormatterConfig()
	c.Verbose = fabkitConfig.Errors.Format.Verbose
	if fabkitConfig.Errors.Format.Color != "" {
		c.Color = fabkitConfig.Errors.Format.Color
	}
	return c
}

func initConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	loaded, err := cfg.LoadConfig(cfg.ConfigInfo{ConfigPath: configPath, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	fabkitConfig = loaded

	closer, err := log.Setup(fabkitConfig.Logs)
	if err != nil {
		return err
	}
	logCloser = closer

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		ui.DisableColor()
		fabkitConfig.Errors.Format.Color = "never"
	}

	if err := errUtils.InitializeSentry(&fabkitConfig.Errors.Sentry); err != nil {
		log.Warn("Sentry is not available", "error", err)
	}

	log.Debug("Configuration loaded", "file", fabkitConfig.CliConfigPath, "backend", fabkitConfig.Backend)
	return nil
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Path to a fabkit.yaml file, merged after the standard locations")
	RootCmd.PersistentFlags().String("backend", "", "How to reach Fabric: 'cli' runs the fab CLI, 'rest' calls the APIs with an Azure AD token")
	RootCmd.PersistentFlags().String("logs-level", "Info", "Logs level. Supported log levels are Trace, Debug, Info, Warning, Off")
	RootCmd.PersistentFlags().String("logs-file", "/dev/stderr", "The file to write logs to, including '/dev/stdout', '/dev/stderr' and '/dev/null'")
	RootCmd.PersistentFlags().String("auth-method", "", "Azure AD credential for the rest backend: default, cli, device-code, interactive, client-secret, managed-identity")
	RootCmd.PersistentFlags().String("tenant-id", "", "Azure AD tenant for the rest backend")
	RootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	RootCmd.PersistentFlags().Bool("verbose", false, "Show error context and stack traces")

	RootCmd.AddCommand(mcpserver.NewCommand(func(ctx context.Context) (*api.Client, error) {
		return newClient(ctx)
	}))
}
