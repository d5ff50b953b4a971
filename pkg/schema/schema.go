package schema

import "time"

// FabkitConfiguration is the merged configuration from fabkit.yaml files, environment and flags.
type FabkitConfiguration struct {
	Backend string      `yaml:"backend" json:"backend" mapstructure:"backend"`
	Fab     Fab         `yaml:"fab" json:"fab" mapstructure:"fab"`
	Auth    Auth        `yaml:"auth" json:"auth" mapstructure:"auth"`
	API     API         `yaml:"api" json:"api" mapstructure:"api"`
	OneLake OneLake     `yaml:"onelake" json:"onelake" mapstructure:"onelake"`
	DataHub DataHub     `yaml:"datahub" json:"datahub" mapstructure:"datahub"`
	Logs    Logs        `yaml:"logs" json:"logs" mapstructure:"logs"`
	Errors  Errors      `yaml:"errors" json:"errors" mapstructure:"errors"`
	Retry   RetryConfig `yaml:"retry" json:"retry" mapstructure:"retry"`

	// CliConfigPath is the config file that was loaded last, if any.
	CliConfigPath string `yaml:"-" json:"cli_config_path,omitempty" mapstructure:"-"`
}

// Fab configures the external fab CLI backend.
type Fab struct {
	Binary     string        `yaml:"binary" json:"binary" mapstructure:"binary"`
	MinVersion string        `yaml:"min_version" json:"min_version" mapstructure:"min_version"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`

	// SessionCheckInterval is how long a successful `fab auth status` is trusted.
	SessionCheckInterval time.Duration `yaml:"session_check_interval" json:"session_check_interval" mapstructure:"session_check_interval"`
}

// Auth configures how the REST backend obtains Azure AD tokens.
type Auth struct {
	Method       string `yaml:"method" json:"method" mapstructure:"method"`
	TenantID     string `yaml:"tenant_id" json:"tenant_id" mapstructure:"tenant_id"`
	ClientID     string `yaml:"client_id" json:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"-" mapstructure:"client_secret"`
}

// API configures the REST endpoints.
type API struct {
	FabricBaseURL  string        `yaml:"fabric_base_url" json:"fabric_base_url" mapstructure:"fabric_base_url"`
	PowerBIBaseURL string        `yaml:"powerbi_base_url" json:"powerbi_base_url" mapstructure:"powerbi_base_url"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	LROTimeout     time.Duration `yaml:"lro_timeout" json:"lro_timeout" mapstructure:"lro_timeout"`
	LROInterval    time.Duration `yaml:"lro_interval" json:"lro_interval" mapstructure:"lro_interval"`
}

// OneLake configures the OneLake blob endpoint.
type OneLake struct {
	URL string `yaml:"url" json:"url" mapstructure:"url"`
}

// DataHub configures the DataHub V2 search.
type DataHub struct {
	Region   string `yaml:"region" json:"region" mapstructure:"region"`
	PageSize int    `yaml:"page_size" json:"page_size" mapstructure:"page_size"`
}

type Logs struct {
	File  string `yaml:"file" json:"file" mapstructure:"file"`
	Level string `yaml:"level" json:"level" mapstructure:"level"`
}

// Errors configures error presentation and reporting.
type Errors struct {
	Format Format       `yaml:"format" json:"format" mapstructure:"format"`
	Sentry SentryConfig `yaml:"sentry" json:"sentry" mapstructure:"sentry"`
}

// Format configures error formatting.
type Format struct {
	Verbose bool   `yaml:"verbose" json:"verbose" mapstructure:"verbose"`
	Color   string `yaml:"color" json:"color" mapstructure:"color"`
}

// SentryConfig configures optional Sentry error reporting.
type SentryConfig struct {
	Enabled     bool              `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	DSN         string            `yaml:"dsn" json:"-" mapstructure:"dsn"`
	Environment string            `yaml:"environment" json:"environment" mapstructure:"environment"`
	Release     string            `yaml:"release" json:"release" mapstructure:"release"`
	SampleRate  float64           `yaml:"sample_rate" json:"sample_rate" mapstructure:"sample_rate"`
	Debug       bool              `yaml:"debug" json:"debug" mapstructure:"debug"`
	Tags        map[string]string `yaml:"tags" json:"tags" mapstructure:"tags"`
}
