package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads the TOML configuration from the conventional locations (or
// CORVID_CONFIG if set), applies CORVID_<SECTION>__<KEY> env overrides
// (spec §6), and unmarshals into Settings.
func Load() (*Settings, error) {
	v := newViper()

	if cfgPath := os.Getenv("CORVID_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("config_" + envName())
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/corvid")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &settings, nil
}

// LoadFile loads a specific TOML file without consulting env vars for
// ENV/path discovery — used by `corvid validate-config --config path`.
func LoadFile(path string) (*Settings, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &settings, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CORVID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()
	return v
}

func envName() string {
	if e := os.Getenv("CORVID_ENV"); e != "" {
		return e
	}
	return "dev"
}
