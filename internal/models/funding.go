package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StringList is a FUNDING.yml value that may be a single scalar or a sequence.
type StringList []string

// UnmarshalYAML accepts both scalar and sequence nodes.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if s != "" {
			*l = StringList{s}
		}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*l = many
		return nil
	}
	return fmt.Errorf("unexpected yaml node kind %d for username list", node.Kind)
}

// First returns the first configured username, or empty.
func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// FundingConfig is a parsed FUNDING.yml document mapping platform names to
// configured usernames.
type FundingConfig struct {
	GitHub         StringList `yaml:"github"`
	Patreon        StringList `yaml:"patreon"`
	OpenCollective StringList `yaml:"open_collective"`
	KoFi           StringList `yaml:"ko_fi"`
	Liberapay      StringList `yaml:"liberapay"`
	Custom         StringList `yaml:"custom"`
}

// ParseFundingConfig decodes a FUNDING.yml document.
func ParseFundingConfig(data []byte) (*FundingConfig, error) {
	var cfg FundingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse funding config: %w", err)
	}
	return &cfg, nil
}
