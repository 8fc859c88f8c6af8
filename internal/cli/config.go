package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "DATAMOVE"

// ConfigName is the base name of the optional config file searched for in
// the working directory (datamove.yaml).
const ConfigName = "datamove"

// Config holds settings shared by the subcommands.
type Config struct {
	DB         string `mapstructure:"db"`
	ProfileDir string `mapstructure:"profile_dir"`
	Profile    string `mapstructure:"profile"`
	Format     string `mapstructure:"format"`
}

// configFlags maps config keys to the flag names that override them.
var configFlags = map[string]string{
	"db":          "db",
	"profile_dir": "profile-dir",
	"profile":     "profile",
	"format":      "format",
}

// LoadConfig resolves the configuration for cmd. Precedence is: flags set on
// the command line, DATAMOVE_* environment variables, the config file, then
// flag defaults.
//
// An empty path searches the working directory for datamove.yaml and tolerates
// its absence. An explicit path must exist.
func LoadConfig(cmd *cobra.Command, path string, defaultFormat string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db", "")
	v.SetDefault("profile_dir", "")
	v.SetDefault("profile", "")
	v.SetDefault("format", defaultFormat)

	for key, name := range configFlags {
		if err := bindFlag(v, key, cmd.Flags().Lookup(name)); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if !isValidFormat(cfg.Format) {
		return nil, fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
	}
	return &cfg, nil
}

// bindFlag binds f to key. Commands that do not define the flag leave the
// key to the environment and config file.
func bindFlag(v *viper.Viper, key string, f *pflag.Flag) error {
	if f == nil {
		return nil
	}
	if err := v.BindPFlag(key, f); err != nil {
		return fmt.Errorf("binding flag --%s: %w", f.Name, err)
	}
	return nil
}
