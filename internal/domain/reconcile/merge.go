package reconcile

import (
	"maps"

	"hue-bridge-integration/internal/domain/model"
)

// Result carries the merged maps and the writes needed to persist them, in
// the order they must be applied.
type Result struct {
	Data    map[string]any
	Options map[string]any
	Updates []model.EntryUpdate
}

// Changed reports whether any write is needed.
func (r Result) Changed() bool {
	return len(r.Updates) > 0
}

// Merge migrates the flags out of data and then applies the legacy override.
// Each migrated flag is one write; the override is at most one combined write.
// The input maps are not modified.
func Merge(data, options map[string]any, legacy *model.LegacyBridgeConfig, defaults model.Defaults) Result {
	res := Result{
		Data:    cloneMap(data),
		Options: cloneMap(options),
	}

	res.migrate(model.ConfAllowUnreachable, defaults.AllowUnreachable)
	res.migrate(model.ConfAllowHueGroups, defaults.AllowHueGroups)

	if legacy != nil {
		res.override(legacy)
	}

	return res
}

func (r *Result) migrate(key string, def bool) {
	value, inData := r.Data[key]
	if !inData {
		return
	}
	if _, inOptions := r.Options[key]; inOptions {
		return
	}
	if value == any(def) {
		return
	}

	options := cloneMap(r.Options)
	options[key] = value
	data := cloneMap(r.Data)
	delete(data, key)

	r.Data, r.Options = data, options
	r.Updates = append(r.Updates, model.EntryUpdate{Data: data, Options: options})
}

func (r *Result) override(legacy *model.LegacyBridgeConfig) {
	changes := make(map[string]any)
	if legacy.AllowHueGroups != nil && differs(r.Options, model.ConfAllowHueGroups, *legacy.AllowHueGroups) {
		changes[model.ConfAllowHueGroups] = *legacy.AllowHueGroups
	}
	if legacy.AllowUnreachable != nil && differs(r.Options, model.ConfAllowUnreachable, *legacy.AllowUnreachable) {
		changes[model.ConfAllowUnreachable] = *legacy.AllowUnreachable
	}
	if len(changes) == 0 {
		return
	}

	options := cloneMap(r.Options)
	maps.Copy(options, changes)
	r.Options = options
	r.Updates = append(r.Updates, model.EntryUpdate{Options: options})
}

func differs(options map[string]any, key string, want bool) bool {
	current, ok := options[key]
	return !ok || current != any(want)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}
