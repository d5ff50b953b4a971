package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

// ConfigInfo carries command-line inputs that influence config loading.
type ConfigInfo struct {
	// ConfigPath is an explicit fabkit.yaml passed with --config.
	ConfigPath string
	// Flags are the parsed persistent flags; changed flags override everything else.
	Flags *pflag.FlagSet
}

// LoadConfig loads fabkit.yaml from the following locations (from lower to higher priority):
// system dir (`/usr/local/etc/fabkit` on Linux, `%LOCALAPPDATA%/fabkit` on Windows)
// XDG config dir (`$XDG_CONFIG_HOME/fabkit`)
// current directory
// FABKIT_CLI_CONFIG_PATH
// --config
// FABKIT_* environment variables
// command-line flags.
func LoadConfig(info ConfigInfo) (schema.FabkitConfiguration, error) {
	v := viper.New()
	var cfg schema.FabkitConfiguration
	v.SetConfigType("yaml")
	v.SetTypeByDefaultValue(true)
	setDefaultConfiguration(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var used string
	for _, dir := range searchDirs() {
		file, err := mergeConfig(v, dir, CliConfigFileName)
		if err != nil {
			return cfg, err
		}
		if file != "" {
			used = file
		}
	}

	if info.ConfigPath != "" {
		if _, err := os.Stat(info.ConfigPath); err != nil {
			return cfg, fmt.Errorf("%w: %s", errUtils.ErrConfigNotFound, info.ConfigPath)
		}
		dir := filepath.Dir(info.ConfigPath)
		name := strings.TrimSuffix(filepath.Base(info.ConfigPath), filepath.Ext(info.ConfigPath))
		file, err := mergeConfig(v, dir, name)
		if err != nil {
			return cfg, err
		}
		used = file
	}

	if info.Flags != nil {
		if err := bindFlags(v, info.Flags); err != nil {
			return cfg, err
		}
	}

	if used == "" {
		log.Debug("fabkit.yaml was not found, using defaults", "paths", "system dir, XDG config dir, current dir, "+ConfigPathEnvVar)
	}

	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", errUtils.ErrInvalidConfig, err)
	}

	if used != "" && !filepath.IsAbs(used) {
		if abs, absErr := filepath.Abs(used); absErr == nil {
			used = abs
		}
	}
	cfg.CliConfigPath = used

	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setDefaultConfiguration sets defaults for every key so environment overrides are picked up by Unmarshal.
func setDefaultConfiguration(v *viper.Viper) {
	v.SetDefault("backend", BackendCLI)

	v.SetDefault("fab.binary", "fab")
	v.SetDefault("fab.min_version", DefaultFabMinVersion)
	v.SetDefault("fab.timeout", 5*time.Minute)
	v.SetDefault("fab.session_check_interval", 10*time.Minute)

	v.SetDefault("auth.method", "default")
	v.SetDefault("auth.tenant_id", "")
	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.client_secret", "")

	v.SetDefault("api.fabric_base_url", DefaultFabricBaseURL)
	v.SetDefault("api.powerbi_base_url", DefaultPowerBIBaseURL)
	v.SetDefault("api.timeout", 60*time.Second)
	v.SetDefault("api.lro_timeout", 10*time.Minute)
	v.SetDefault("api.lro_interval", 2*time.Second)

	v.SetDefault("onelake.url", DefaultOneLakeURL)

	v.SetDefault("datahub.region", DefaultDataHubRegion)
	v.SetDefault("datahub.page_size", 1000)

	v.SetDefault("logs.file", "/dev/stderr")
	v.SetDefault("logs.level", "Info")

	v.SetDefault("errors.format.verbose", false)
	v.SetDefault("errors.format.color", "auto")
	v.SetDefault("errors.sentry.enabled", false)
	v.SetDefault("errors.sentry.dsn", "")
	v.SetDefault("errors.sentry.environment", "")
	v.SetDefault("errors.sentry.release", "")
	v.SetDefault("errors.sentry.sample_rate", 1.0)
	v.SetDefault("errors.sentry.debug", false)

	v.SetDefault("retry.max_attempts", 1)
	v.SetDefault("retry.backoff_strategy", string(schema.BackoffExponential))
	v.SetDefault("retry.initial_delay", time.Second)
	v.SetDefault("retry.max_delay", 30*time.Second)
	v.SetDefault("retry.random_jitter", true)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.max_elapsed_time", 5*time.Minute)
}

// searchDirs returns the implicit config directories in merge order.
func searchDirs() []string {
	var dirs []string
	if runtime.GOOS == "windows" {
		if appData := os.Getenv(WindowsAppDataEnvVar); appData != "" {
			dirs = append(dirs, filepath.Join(appData, CliConfigFileName))
		}
	} else {
		dirs = append(dirs, SystemDirConfigFilePath)
	}
	dirs = append(dirs, filepath.Join(xdg.ConfigHome, CliConfigFileName))
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		dirs = append(dirs, envPath)
	}
	return dirs
}

// mergeConfig merges <dir>/<name>.yaml into v when it exists and returns the file used.
func mergeConfig(v *viper.Viper, dir string, name string) (string, error) {
	file := viper.New()
	file.SetConfigType("yaml")
	file.AddConfigPath(dir)
	file.SetConfigName(name)
	if err := file.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return "", nil
		}
		return "", fmt.Errorf("%w: %s: %v", errUtils.ErrInvalidConfig, dir, err)
	}
	if err := v.MergeConfigMap(file.AllSettings()); err != nil {
		return "", fmt.Errorf("%w: %v", errUtils.ErrInvalidConfig, err)
	}
	log.Debug("Loaded config", "file", file.ConfigFileUsed())
	return file.ConfigFileUsed(), nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flagName, key := range flagKeys {
		flag := fs.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

func validate(cfg *schema.FabkitConfiguration) error {
	cfg.Backend = strings.ToLower(cfg.Backend)
	if cfg.Backend != BackendREST && cfg.Backend != BackendCLI {
		return errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidBackend, cfg.Backend)).
			WithHintf("Set backend to %q or %q", BackendCLI, BackendREST).
			Err()
	}
	if _, err := log.ParseLogLevel(cfg.Logs.Level); err != nil {
		return err
	}
	return nil
}
