package model

// LegacyBridgeConfig is one bridge declared in the deprecated YAML configuration.
// Nil flags were not set in the file.
type LegacyBridgeConfig struct {
	Host             string `yaml:"host" json:"host"`
	AllowUnreachable *bool  `yaml:"allow_unreachable,omitempty" json:"allow_unreachable,omitempty"`
	AllowHueGroups   *bool  `yaml:"allow_hue_groups,omitempty" json:"allow_hue_groups,omitempty"`
	Filename         string `yaml:"filename,omitempty" json:"filename,omitempty"`
}

// LegacyConfig is the validated `hue:` section. A nil *LegacyConfig means the
// section was absent.
type LegacyConfig struct {
	Bridges []LegacyBridgeConfig
}

// FlowRequest asks the entry-creation worker to create an entry.
type FlowRequest struct {
	Domain string
	Source EntrySource
	Data   map[string]any
}
