package coordinator

import "github.com/corvid-assistant/corvid/internal/provider"

// filterKnownParams drops any key in extra that isn't named in schema,
// logging what was dropped (spec §4.2 tie-break: "parameter unknown to a
// provider -> coordinator drops it (with log) rather than failing").
func (c *Coordinator) filterKnownParams(providerName string, schema []provider.ParameterSpec, extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return extra
	}
	known := make(map[string]bool, len(schema))
	for _, p := range schema {
		known[p.Name] = true
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		if known[k] {
			out[k] = v
			continue
		}
		c.log.With("provider", providerName, "param", k).Warnw("dropping unknown provider parameter")
	}
	return out
}
