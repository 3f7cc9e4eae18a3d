// Package config loads the integration's own settings.
//
// Values are layered: hardcoded defaults, then the YAML file, then HUE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"hue-bridge-integration/internal/domain/model"
	"hue-bridge-integration/internal/logging"
)

type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Legacy        LegacyConfig        `yaml:"legacy"`
	Bridge        BridgeConfig        `yaml:"bridge"`
	Defaults      DefaultsConfig      `yaml:"defaults"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HTTP          HTTPConfig          `yaml:"http"`
	Logging       logging.Config      `yaml:"logging"`
}

// StorageConfig locates the config entry file and the device database.
type StorageConfig struct {
	EntriesPath string `yaml:"entries_path"`
	DevicesPath string `yaml:"devices_path"`
}

// LegacyConfig points at the deprecated YAML file that may declare bridges
// under a `hue:` key. Empty disables the import.
type LegacyConfig struct {
	Path string `yaml:"path"`
}

type BridgeConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	// DeviceType is the application name registered when linking a bridge.
	DeviceType string `yaml:"device_type"`
}

// DefaultsConfig holds the documented defaults of the option flags.
type DefaultsConfig struct {
	AllowUnreachable bool `yaml:"allow_unreachable"`
	AllowHueGroups   bool `yaml:"allow_hue_groups"`
}

// HomeAssistantConfig enables delivery of persistent notifications through
// the Home Assistant REST API.
type HomeAssistantConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads path (if not empty), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	defaults := model.DefaultOptions()
	return &Config{
		Storage: StorageConfig{
			EntriesPath: ".storage/core.config_entries.json",
			DevicesPath: ".storage/core.device_registry.db",
		},
		Legacy: LegacyConfig{
			Path: "configuration.yaml",
		},
		Bridge: BridgeConfig{
			Timeout:    10 * time.Second,
			DeviceType: "hue-bridge-integration",
		},
		Defaults: DefaultsConfig{
			AllowUnreachable: defaults.AllowUnreachable,
			AllowHueGroups:   defaults.AllowHueGroups,
		},
		MQTT: MQTTConfig{
			ClientID:    "hue-bridge-integration",
			TopicPrefix: "hue",
			QoS:         1,
		},
		HTTP: HTTPConfig{
			Listen: ":8099",
		},
		Logging: logging.Config{
			Level:  "info",
			Output: "stdout",
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("HUE_ENTRIES_PATH"); v != "" {
		cfg.Storage.EntriesPath = v
	}
	if v := os.Getenv("HUE_DEVICES_PATH"); v != "" {
		cfg.Storage.DevicesPath = v
	}
	if v, ok := os.LookupEnv("HUE_LEGACY_CONFIG"); ok {
		cfg.Legacy.Path = v
	}
	if v := os.Getenv("HUE_HASS_URL"); v != "" {
		cfg.HomeAssistant.URL = v
	}
	if v := os.Getenv("HUE_HASS_TOKEN"); v != "" {
		cfg.HomeAssistant.Token = v
	}
	if v := os.Getenv("HUE_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
		cfg.MQTT.Enabled = true
	}
	if v := os.Getenv("HUE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("HUE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("HUE_HTTP_LISTEN"); v != "" {
		cfg.HTTP.Listen = v
	}
	if v := os.Getenv("HUE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HUE_BRIDGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing HUE_BRIDGE_TIMEOUT: %w", err)
		}
		cfg.Bridge.Timeout = d
	}
	if v := os.Getenv("HUE_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing HUE_DEBUG: %w", err)
		}
		cfg.Logging.Debug = debug
	}
	return nil
}

// Validate checks the configuration for values the integration cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Storage.EntriesPath == "" {
		errs = append(errs, errors.New("storage.entries_path is required"))
	}
	if c.Storage.DevicesPath == "" {
		errs = append(errs, errors.New("storage.devices_path is required"))
	}
	if c.Bridge.Timeout <= 0 {
		errs = append(errs, errors.New("bridge.timeout must be positive"))
	}
	if c.Bridge.DeviceType == "" {
		errs = append(errs, errors.New("bridge.device_type is required"))
	}
	if (c.HomeAssistant.URL == "") != (c.HomeAssistant.Token == "") {
		errs = append(errs, errors.New("homeassistant.url and homeassistant.token must be set together"))
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
	}
	if c.HTTP.Listen == "" {
		errs = append(errs, errors.New("http.listen is required"))
	}

	return errors.Join(errs...)
}
