package config

const (
	CliConfigFileName = "fabkit"
	EnvPrefix         = "FABKIT"

	SystemDirConfigFilePath = "/usr/local/etc/fabkit"
	WindowsAppDataEnvVar    = "LOCALAPPDATA"

	// ConfigPathEnvVar points at a directory containing fabkit.yaml.
	ConfigPathEnvVar = "FABKIT_CLI_CONFIG_PATH"

	BackendREST = "rest"
	BackendCLI  = "cli"

	DefaultFabricBaseURL  = "https://api.fabric.microsoft.com/v1/"
	DefaultPowerBIBaseURL = "https://api.powerbi.com/v1.0/myorg/"
	DefaultOneLakeURL     = "https://onelake.blob.fabric.microsoft.com"
	DefaultDataHubRegion  = "west-europe"
	DefaultFabMinVersion  = "1.0.0"
)

// flagKeys maps persistent CLI flags onto configuration keys.
var flagKeys = map[string]string{
	"backend":        "backend",
	"logs-level":     "logs.level",
	"logs-file":      "logs.file",
	"fab-binary":     "fab.binary",
	"auth-method":    "auth.method",
	"tenant-id":      "auth.tenant_id",
	"verbose":        "errors.format.verbose",
	"datahub-region": "datahub.region",
}
