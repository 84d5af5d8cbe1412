package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadContextFile reads template data from a JSON or YAML document whose top
// level is an object.
func LoadContextFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read context %s: %w", path, err)
	}
	return ParseContext(data, path)
}

// ParseContext decodes data as JSON, falling back to YAML. source names the
// document in errors.
func ParseContext(data []byte, source string) (map[string]any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err == nil {
		return nonNil(doc), nil
	}

	if err := yaml.Unmarshal(data, &doc); err == nil {
		return nonNil(doc), nil
	}

	return nil, fmt.Errorf("config: parse context %s: invalid JSON or YAML object", source)
}

func nonNil(doc map[string]any) map[string]any {
	if doc == nil {
		return map[string]any{}
	}
	return doc
}
