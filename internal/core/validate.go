package core

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateArgs checks an argument map against a descriptor's input
// schema before the handler runs: every schema-required property must be
// present and every provided key must be declared. The error text names
// the offending fields so the caller can surface it verbatim.
func ValidateArgs(desc Descriptor, args map[string]any) error {
	required := schemaRequired(desc.InputSchema)
	properties := schemaProperties(desc.InputSchema)

	var missing []string
	for _, field := range required {
		if _, ok := args[field]; !ok {
			missing = append(missing, field)
		}
	}

	var unknown []string
	for key := range args {
		if _, ok := properties[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required field(s): "+strings.Join(missing, ", "))
	}
	if len(unknown) > 0 {
		parts = append(parts, "unknown field(s): "+strings.Join(unknown, ", "))
	}
	if len(parts) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}

// schemaRequired tolerates both the in-process []string shape and the
// []any shape a schema acquires after a JSON round trip.
func schemaRequired(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, v := range req {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func schemaProperties(schema map[string]any) map[string]any {
	props, _ := schema["properties"].(map[string]any)
	return props
}
