// Package legacy reads the deprecated `hue:` section of a YAML configuration
// file and validates it into model.LegacyConfig.
package legacy

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"hue-bridge-integration/internal/domain/model"
)

// InvalidationVersion is the release in which the `hue:` key stops being accepted.
const InvalidationVersion = "0.115.0"

const (
	keyBridges  = "bridges"
	keyFilename = "filename"
)

var ErrInvalidConfig = errors.New("legacy: invalid configuration")

// LoadFile reads path. A missing file means no legacy configuration.
func LoadFile(path string, logger zerolog.Logger) (*model.LegacyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading legacy config: %w", err)
	}
	return Parse(data, logger)
}

// Parse validates the `hue:` key of a YAML document. Other top-level keys are
// ignored. It returns nil when the key is absent.
func Parse(data []byte, logger zerolog.Logger) (*model.LegacyConfig, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	section, ok := doc[model.Domain]
	if !ok {
		return nil, nil
	}

	logger.Warn().
		Str("key", model.Domain).
		Str("invalidation_version", InvalidationVersion).
		Msg("the hue configuration option is deprecated, remove it from your configuration; " +
			"bridges are configured as config entries")

	cfg := &model.LegacyConfig{}
	if section.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s must be a mapping (line %d)", ErrInvalidConfig, model.Domain, section.Line)
	}

	var bridges *yaml.Node
	for i := 0; i+1 < len(section.Content); i += 2 {
		key, value := section.Content[i], section.Content[i+1]
		if key.Value != keyBridges {
			return nil, fmt.Errorf("%w: unknown key %s.%s (line %d)", ErrInvalidConfig, model.Domain, key.Value, key.Line)
		}
		bridges = value
	}
	if bridges == nil || isNull(bridges) {
		return cfg, nil
	}

	for _, node := range ensureList(bridges) {
		b, err := parseBridge(node)
		if err != nil {
			return nil, err
		}
		cfg.Bridges = append(cfg.Bridges, b)
	}
	return cfg, nil
}

// ensureList accepts a single mapping where a list is expected.
func ensureList(n *yaml.Node) []*yaml.Node {
	if n.Kind == yaml.SequenceNode {
		return n.Content
	}
	return []*yaml.Node{n}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func parseBridge(n *yaml.Node) (model.LegacyBridgeConfig, error) {
	var b model.LegacyBridgeConfig
	if n.Kind != yaml.MappingNode {
		return b, fmt.Errorf("%w: bridge must be a mapping (line %d)", ErrInvalidConfig, n.Line)
	}

	hasHost := false
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case model.ConfHost:
			host, err := parseHost(value)
			if err != nil {
				return b, err
			}
			b.Host = host
			hasHost = true
		case model.ConfAllowUnreachable:
			v, err := parseBool(value)
			if err != nil {
				return b, err
			}
			b.AllowUnreachable = &v
		case model.ConfAllowHueGroups:
			v, err := parseBool(value)
			if err != nil {
				return b, err
			}
			b.AllowHueGroups = &v
		case keyFilename:
			if value.Kind != yaml.ScalarNode || value.Tag != "!!str" {
				return b, fmt.Errorf("%w: filename must be a string (line %d)", ErrInvalidConfig, value.Line)
			}
			b.Filename = value.Value
		default:
			return b, fmt.Errorf("%w: unknown bridge option %q (line %d)", ErrInvalidConfig, key.Value, key.Line)
		}
	}

	if !hasHost {
		return b, fmt.Errorf("%w: bridge is missing required key host (line %d)", ErrInvalidConfig, n.Line)
	}
	return b, nil
}

// parseHost requires an IP address and returns it in canonical form.
func parseHost(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%w: host must be an IP address (line %d)", ErrInvalidConfig, n.Line)
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(n.Value))
	if err != nil || addr.Zone() != "" {
		return "", fmt.Errorf("%w: %q is not a valid IP address (line %d)", ErrInvalidConfig, n.Value, n.Line)
	}
	return addr.String(), nil
}

// parseBool accepts YAML booleans, numbers (non-zero is true) and the
// strings 1/0, true/false, yes/no, on/off, enable/disable in any case.
func parseBool(n *yaml.Node) (bool, error) {
	if n.Kind == yaml.ScalarNode {
		switch n.Tag {
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err == nil {
				return b, nil
			}
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err == nil {
				return f != 0, nil
			}
		case "!!str":
			switch strings.ToLower(strings.TrimSpace(n.Value)) {
			case "1", "true", "yes", "on", "enable":
				return true, nil
			case "0", "false", "no", "off", "disable":
				return false, nil
			}
		}
	}
	return false, fmt.Errorf("%w: invalid boolean value %q (line %d)", ErrInvalidConfig, n.Value, n.Line)
}
