package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SetYamlConfig validates value for key and writes it to the project's
// config.yaml, creating .triage/config.yaml in the cwd when no project file
// exists. Comments and unrelated keys are preserved. Dotted keys become
// nested mappings. It returns the path written.
func SetYamlConfig(key, value string) (string, error) {
	if err := ValidateKey(key, value); err != nil {
		return "", err
	}

	configPath, err := FindConfigYAMLPath()
	if err != nil {
		cwd, werr := os.Getwd()
		if werr != nil {
			return "", fmt.Errorf("failed to get working directory: %w", werr)
		}
		dir := filepath.Join(cwd, ProjectDirName)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
		configPath = filepath.Join(dir, ConfigFileName)
	}

	data, err := os.ReadFile(configPath) // #nosec G304 - path found under the project dir
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read config.yaml: %w", err)
	}
	out, err := updateYamlKey(data, key, scalarFor(LookupKey(key), value))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(configPath, out, 0600); err != nil {
		return "", fmt.Errorf("failed to write config.yaml: %w", err)
	}

	// Reload so the new value is visible to this process.
	if v != nil {
		v.SetConfigFile(configPath)
		_ = v.ReadInConfig()
	}
	return configPath, nil
}

// updateYamlKey sets the dotted key to value in the YAML document data.
func updateYamlKey(data []byte, key string, value *yaml.Node) ([]byte, error) {
	var root yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse config.yaml: %w", err)
		}
	}
	// Empty or comment-only files decode to a bare document.
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		comment := root.HeadComment
		root = yaml.Node{Kind: yaml.DocumentNode, HeadComment: comment, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config.yaml is not a mapping")
	}

	parts := strings.Split(key, ".")
	for i, part := range parts {
		last := i == len(parts)-1
		child := lookupChild(mapping, part)
		switch {
		case last && child != nil:
			*child = mergeComments(*child, value)
		case last:
			mapping.Content = append(mapping.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part}, value)
		case child == nil:
			child = &yaml.Node{Kind: yaml.MappingNode}
			mapping.Content = append(mapping.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part}, child)
			mapping = child
		case child.Kind != yaml.MappingNode:
			return nil, fmt.Errorf("config key %q is not a mapping", strings.Join(parts[:i+1], "."))
		default:
			mapping = child
		}
	}

	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, fmt.Errorf("failed to encode config.yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to close encoder: %w", err)
	}
	return []byte(buf.String()), nil
}

func lookupChild(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func mergeComments(old yaml.Node, value *yaml.Node) yaml.Node {
	n := *value
	n.HeadComment, n.LineComment, n.FootComment = old.HeadComment, old.LineComment, old.FootComment
	return n
}

// scalarFor builds the YAML scalar for value, tagged after the key's default
// so that "3" stays an int and "yes" becomes a bool.
func scalarFor(k *Key, value string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	if k == nil {
		return n
	}
	switch k.Default.(type) {
	case bool:
		b, _ := parseBool(value)
		n.Tag, n.Value = "!!bool", strconv.FormatBool(b)
	case int:
		n.Tag, n.Value = "!!int", strings.TrimSpace(value)
	}
	return n
}
