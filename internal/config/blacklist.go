package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// blacklistFile is the on-disk shape of BLACKLIST_FILE:
//
//	labels:
//	  - guro
//	  - scat
type blacklistFile struct {
	Labels []string `yaml:"labels"`
}

// LoadBlacklist reads the default blacklist. An empty path means no defaults.
func LoadBlacklist(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blacklist file: %w", err)
	}
	var f blacklistFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse blacklist file %s: %w", path, err)
	}
	return f.Labels, nil
}
