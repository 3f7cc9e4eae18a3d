// Package reconcile holds the I/O free parts of bridge configuration handling:
// planning the import of legacy YAML bridges and merging the three sources of
// option flags into one canonical options map.
package reconcile

import "hue-bridge-integration/internal/domain/model"

// ImportPlan is the outcome of reading the legacy configuration.
type ImportPlan struct {
	// Configs maps a host to the last legacy record declared for it.
	Configs map[string]model.LegacyBridgeConfig
	// Requests holds one create-entry request per host without an entry.
	Requests []model.FlowRequest
}

// PlanImport records every legacy bridge by host and requests an entry for
// each host not yet stored in an existing entry.
func PlanImport(cfg *model.LegacyConfig, entries []*model.ConfigEntry) ImportPlan {
	plan := ImportPlan{Configs: make(map[string]model.LegacyBridgeConfig)}
	if cfg == nil {
		return plan
	}

	configured := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		configured[e.Host()] = struct{}{}
	}

	requested := make(map[string]struct{})
	for _, b := range cfg.Bridges {
		plan.Configs[b.Host] = b

		if _, ok := configured[b.Host]; ok {
			continue
		}
		if _, ok := requested[b.Host]; ok {
			continue
		}
		requested[b.Host] = struct{}{}

		plan.Requests = append(plan.Requests, model.FlowRequest{
			Domain: model.Domain,
			Source: model.SourceImport,
			Data:   map[string]any{model.ConfHost: b.Host},
		})
	}

	return plan
}
