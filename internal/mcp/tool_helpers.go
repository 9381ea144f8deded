package mcp

import (
	"tia/internal/discover"
	"tia/internal/framework"
)

// Param extraction helpers. MCP arguments arrive as untyped JSON;
// absent or mistyped values fall back to zero values.

func stringParam(params map[string]interface{}, key string) string {
	v, _ := params[key].(string)
	return v
}

func boolParam(params map[string]interface{}, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func intParam(params map[string]interface{}, key string) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func floatParam(params map[string]interface{}, key string) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func stringSliceParam(params map[string]interface{}, key string) []string {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func testTypesParam(params map[string]interface{}, key string) []discover.TestType {
	names := stringSliceParam(params, key)
	if len(names) == 0 {
		return nil
	}
	out := make([]discover.TestType, 0, len(names))
	for _, n := range names {
		out = append(out, discover.TestType(n))
	}
	return out
}

func parseFramework(s string) framework.Framework {
	if s == "" {
		return ""
	}
	fw, ok := framework.Parse(s)
	if !ok {
		return ""
	}
	return fw
}

// Schema builders for tool input schemas.

func objectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringArraySchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}
