package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSetYamlConfigCreatesProjectFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, Initialize())

	path, err := SetYamlConfig("fallback.max-attempts", "5")
	require.NoError(t, err)
	assert.Equal(t, ProjectDirName, filepath.Base(filepath.Dir(path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fallback:\n  max-attempts: 5\n", string(data))

	// The running config sees the new value.
	assert.Equal(t, 5, GetInt("fallback.max-attempts"))
}

func TestSetYamlConfigPreservesContent(t *testing.T) {
	path := writeProjectConfig(t, `# triage settings
json: false # machine output
fallback:
  use-defaults: true
github:
  repo: acme/web
`)
	require.NoError(t, Initialize())

	_, err := SetYamlConfig("json", "yes")
	require.NoError(t, err)
	_, err = SetYamlConfig("fallback.log-warnings", "off")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# triage settings")
	assert.Contains(t, text, "json: true # machine output")
	assert.Contains(t, text, "repo: acme/web")

	var cfg struct {
		JSON     bool `yaml:"json"`
		Fallback struct {
			UseDefaults bool `yaml:"use-defaults"`
			LogWarnings bool `yaml:"log-warnings"`
		} `yaml:"fallback"`
	}
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.True(t, cfg.JSON)
	assert.True(t, cfg.Fallback.UseDefaults)
	assert.False(t, cfg.Fallback.LogWarnings)
}

func TestSetYamlConfigStringStaysString(t *testing.T) {
	path := writeProjectConfig(t, "")
	_, err := SetYamlConfig("github.api-url", "https://ghe.example.com/api/v3")
	require.NoError(t, err)

	var cfg map[string]map[string]interface{}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg["github"]["api-url"])
}

func TestSetYamlConfigRejects(t *testing.T) {
	writeProjectConfig(t, "json: false\n")

	tests := []struct {
		key, value string
	}{
		{"no-such-key", "1"},
		{"github.token", "ghp_secret"},
		{"jobs", "zero"},
		{"jobs", "0"},
		{"strict", "maybe"},
		{"github.repo", "not a repo"},
		{"github.api-url", "ftp://x"},
	}
	for _, tt := range tests {
		_, err := SetYamlConfig(tt.key, tt.value)
		assert.Error(t, err, "%s=%s", tt.key, tt.value)
	}
}

func TestUpdateYamlKeyNotMapping(t *testing.T) {
	_, err := updateYamlKey([]byte("fallback: on\n"), "fallback.enabled", scalarFor(LookupKey("fallback.enabled"), "true"))
	assert.Error(t, err)

	_, err = updateYamlKey([]byte("- a\n- b\n"), "json", scalarFor(LookupKey("json"), "true"))
	assert.Error(t, err)
}
