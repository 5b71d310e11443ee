// Package config holds the user configuration of the triage tool: a viper
// instance fed from .triage/config.yaml, the user config directory and
// TRIAGE_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ProjectDirName is the per-project directory searched from the cwd up.
	ProjectDirName = ".triage"
	// ConfigFileName is the config file inside ProjectDirName.
	ConfigFileName = "config.yaml"
	// EnvPrefix prefixes every environment override: fallback.max-attempts
	// is TRIAGE_FALLBACK_MAX_ATTEMPTS.
	EnvPrefix = "TRIAGE"
)

var v *viper.Viper

// Initialize (re)builds the viper instance. A missing config file is not an
// error; a malformed one is.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, k := range Keys {
		v.SetDefault(k.Key, k.Default)
	}
	if err := v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return fmt.Errorf("binding github.token: %w", err)
	}

	path, err := findConfigFile()
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// ResetForTesting drops the viper instance so getters return zero values.
func ResetForTesting() {
	v = nil
}

// findConfigFile returns TRIAGE_CONFIG if set, else the nearest
// .triage/config.yaml above the cwd, else the user-level file if it exists.
func findConfigFile() (string, error) {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p, nil
	}
	if p, err := FindConfigYAMLPath(); err == nil {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", nil
	}
	p := filepath.Join(dir, "triage", ConfigFileName)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", nil
}

// FindConfigYAMLPath walks up from the cwd looking for .triage/config.yaml.
func FindConfigYAMLPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		p := filepath.Join(dir, ProjectDirName, ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}
	return "", fmt.Errorf("no %s/%s found in current directory or parents", ProjectDirName, ConfigFileName)
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// Get returns the raw value of key.
func Get(key string) interface{} {
	if v == nil {
		return nil
	}
	return v.Get(key)
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// GetStringSlice retrieves a string slice configuration value
func GetStringSlice(key string) []string {
	if v == nil {
		return []string{}
	}
	return v.GetStringSlice(key)
}

// Set sets a configuration value for the current process only.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns all configuration settings as a map
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// Setting is one row of `triage config list`.
type Setting struct {
	Key         string      `json:"key" yaml:"key"`
	Value       interface{} `json:"value" yaml:"value"`
	Origin      string      `json:"origin" yaml:"origin"` // default, file or env
	Description string      `json:"description" yaml:"description"`
}

// Settings returns every known key with its effective value and origin.
// Secret values are masked.
func Settings() []Setting {
	out := make([]Setting, 0, len(Keys))
	for _, k := range Keys {
		s := Setting{Key: k.Key, Value: Get(k.Key), Origin: "default", Description: k.Description}
		switch {
		case envSet(k.Key):
			s.Origin = "env"
		case v != nil && v.InConfig(k.Key):
			s.Origin = "file"
		}
		if k.Secret && GetString(k.Key) != "" {
			s.Value = "********"
		}
		out = append(out, s)
	}
	return out
}

func envSet(key string) bool {
	name := EnvPrefix + "_" + strings.NewReplacer(".", "_", "-", "_").Replace(strings.ToUpper(key))
	if _, ok := os.LookupEnv(name); ok {
		return true
	}
	if key == "github.token" {
		_, ok := os.LookupEnv("GITHUB_TOKEN")
		return ok
	}
	return false
}
