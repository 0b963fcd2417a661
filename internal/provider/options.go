package provider

// The per-call/per-instance options every Factory and capability method
// receives are untyped (map[string]any) by contract (spec §4.1: "accepts
// typed config, returns typed results"); these helpers centralize the
// coercion every built-in provider otherwise repeats.

func StringOpt(opts map[string]any, key, def string) string {
	if v, ok := opts[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func IntOpt(opts map[string]any, key string, def int) int {
	if v, ok := opts[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

func FloatOpt(opts map[string]any, key string, def float64) float64 {
	if v, ok := opts[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

func BoolOpt(opts map[string]any, key string, def bool) bool {
	if v, ok := opts[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func StringSliceOpt(opts map[string]any, key string, def []string) []string {
	v, ok := opts[key]
	if !ok {
		return def
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return def
}
