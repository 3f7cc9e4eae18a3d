package model

import "maps"

// Domain is the integration domain used for entries, identifiers and flows.
const Domain = "hue"

// Keys stored in a config entry's data or options.
const (
	ConfHost             = "host"
	ConfUsername         = "username"
	ConfAllowUnreachable = "allow_unreachable"
	ConfAllowHueGroups   = "allow_hue_groups"
)

// Documented defaults of the option flags.
const (
	DefaultAllowUnreachable = false
	DefaultAllowHueGroups   = true
)

type EntrySource string

const (
	SourceUser   EntrySource = "user"
	SourceImport EntrySource = "import"
)

// ConfigEntry is one persisted, configured bridge.
type ConfigEntry struct {
	EntryID  string         `json:"entry_id"`
	Domain   string         `json:"domain"`
	Title    string         `json:"title"`
	Source   EntrySource    `json:"source"`
	UniqueID string         `json:"unique_id,omitempty"`
	Data     map[string]any `json:"data"`
	Options  map[string]any `json:"options"`
}

// Host returns the bridge address stored in the entry data.
func (e *ConfigEntry) Host() string {
	host, _ := e.Data[ConfHost].(string)
	return host
}

func (e *ConfigEntry) Username() string {
	user, _ := e.Data[ConfUsername].(string)
	return user
}

// Clone returns a copy whose maps can be modified without touching e.
func (e *ConfigEntry) Clone() *ConfigEntry {
	c := *e
	c.Data = maps.Clone(e.Data)
	c.Options = maps.Clone(e.Options)
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	if c.Options == nil {
		c.Options = map[string]any{}
	}
	return &c
}

// EntryUpdate replaces the non-nil parts of an entry.
type EntryUpdate struct {
	Data     map[string]any
	Options  map[string]any
	UniqueID *string
}

func (u EntryUpdate) Empty() bool {
	return u.Data == nil && u.Options == nil && u.UniqueID == nil
}

// Defaults holds the documented default value of each option flag.
type Defaults struct {
	AllowUnreachable bool
	AllowHueGroups   bool
}

func DefaultOptions() Defaults {
	return Defaults{
		AllowUnreachable: DefaultAllowUnreachable,
		AllowHueGroups:   DefaultAllowHueGroups,
	}
}

// FlagOption reads a boolean option, falling back to def when unset or not a bool.
func FlagOption(options map[string]any, key string, def bool) bool {
	if v, ok := options[key].(bool); ok {
		return v
	}
	return def
}
