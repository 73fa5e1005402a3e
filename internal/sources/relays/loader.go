package relays

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of relays.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new relay list loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the relays.yaml file. An active entry that is
// not in the relay list is cleared rather than rejected.
func (l *Loader) Load() (Config, error) {
	var config Config

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return config, fmt.Errorf("failed to read relays file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse relays yaml: %w", err)
	}

	if config.Active != "" && !contains(config.Relays, config.Active) {
		config.Active = ""
	}

	return config, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
