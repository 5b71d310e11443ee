package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Key describes a configuration key.
type Key struct {
	Key         string      // Full dotted key (e.g., "fallback.max-attempts")
	Description string      // Human-readable description
	Default     interface{} // Typed default; its type decides the YAML tag on write
	Secret      bool        // Never written to config.yaml
	Validate    func(string) error
}

// Keys defines every configuration key triage reads.
var Keys = []Key{
	{
		Key:         "json",
		Description: "Emit JSON instead of text",
		Default:     false,
		Validate:    validateBool,
	},
	{
		Key:         "strict",
		Description: "Fail the parse when validation reports warnings",
		Default:     false,
		Validate:    validateBool,
	},
	{
		Key:         "skip-validation",
		Description: "Report every parse as valid without running the validator",
		Default:     false,
		Validate:    validateBool,
	},
	{
		Key:         "fallback.enabled",
		Description: "Recover failed parses instead of returning the error",
		Default:     true,
		Validate:    validateBool,
	},
	{
		Key:         "fallback.use-defaults",
		Description: "Repair invalid fields with defaults after validation errors",
		Default:     true,
		Validate:    validateBool,
	},
	{
		Key:         "fallback.infer-from-context",
		Description: "Fill files, symbols and criteria from the raw body during recovery",
		Default:     true,
		Validate:    validateBool,
	},
	{
		Key:         "fallback.log-warnings",
		Description: "Log recovery steps and validation warnings to the debug log",
		Default:     true,
		Validate:    validateBool,
	},
	{
		Key:         "fallback.max-attempts",
		Description: "Recovery attempts allowed per parse",
		Default:     3,
		Validate:    validatePositiveInt,
	},
	{
		Key:         "jobs",
		Description: "Files parsed concurrently by `triage parse`",
		Default:     4,
		Validate:    validatePositiveInt,
	},
	{
		Key:         "github.repo",
		Description: "Default owner/name repository for fetch and export",
		Default:     "",
		Validate:    validateRepo,
	},
	{
		Key:         "github.api-url",
		Description: "GitHub REST API base URL",
		Default:     "https://api.github.com",
		Validate:    validateURL,
	},
	{
		Key:         "github.token",
		Description: "GitHub token (GITHUB_TOKEN or TRIAGE_GITHUB_TOKEN)",
		Default:     "",
		Secret:      true,
	},
}

var keyMap map[string]*Key

func init() {
	keyMap = make(map[string]*Key, len(Keys))
	for i := range Keys {
		keyMap[Keys[i].Key] = &Keys[i]
	}
}

// LookupKey returns the definition of key, or nil for an unknown key.
func LookupKey(key string) *Key {
	return keyMap[key]
}

// ValidateKey checks that key is known, writable and that value suits it.
func ValidateKey(key, value string) error {
	k := keyMap[key]
	if k == nil {
		known := make([]string, 0, len(Keys))
		for _, k := range Keys {
			known = append(known, k.Key)
		}
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(known, ", "))
	}
	if k.Secret {
		return fmt.Errorf("key %q is a secret and must not be stored in config (set it in the environment)", key)
	}
	if k.Validate != nil {
		if err := k.Validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

// Validation helpers

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("must be true or false, got %q", value)
}

func validateBool(value string) error {
	_, err := parseBool(value)
	return err
}

func validatePositiveInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("must be a number, got %q", value)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

var repoRe = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)

func validateRepo(value string) error {
	if value != "" && !repoRe.MatchString(value) {
		return fmt.Errorf("must look like owner/name, got %q", value)
	}
	return nil
}

func validateURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL, got %q", value)
	}
	return nil
}
