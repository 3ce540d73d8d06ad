package config

import (
	"net/url"
	"slices"
)

const redacted = "<redacted>"

// Redacted returns a deep copy of the configuration safe to show to users.
// Every leaf value of the settings trees is replaced, and credentials are
// stripped from the push URL. Keys and structure are kept.
func (c *Config) Redacted() *Config {
	out := *c
	out.Settings = redactTree(c.Settings)
	out.Monitoring.PushURL = redactURL(c.Monitoring.PushURL)

	out.Components = make([]ComponentConfig, len(c.Components))
	for i, comp := range c.Components {
		comp.DependsOn = slices.Clone(comp.DependsOn)
		comp.Settings = redactTree(comp.Settings)
		out.Components[i] = comp
	}
	return &out
}

func redactTree(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return redactTree(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = redactValue(item)
		}
		return out
	default:
		return redacted
	}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.User(redacted)
	return u.String()
}
