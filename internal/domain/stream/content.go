// Package stream interprets the raw event stream emitted by the driving
// agent process. The stream is produced by software outside this system's
// control, so every extractor here is maximally tolerant: malformed or
// partial input degrades to empty results and never returns an error.
package stream

import "strings"

// ToolInvocation is one tool_use block extracted from assistant content.
// Input is carried through unchanged when present and is nil when the block
// omitted it.
type ToolInvocation struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input,omitempty"`
}

// ToolResult is one tool_result block extracted from user content, used to
// correlate sub-agent completion signals by tool_use_id.
type ToolResult struct {
	ToolUseID string  `json:"tool_use_id"`
	IsError   bool    `json:"is_error,omitempty"`
	CostUSD   float64 `json:"cost_usd,omitempty"`
}

// ExtractText returns the plain text carried by an untyped content value.
//
// A string is returned unchanged. A sequence yields the text field of every
// element that is an object with type "text" and a string text field, joined
// with newlines in order; anything else in the sequence is skipped. Any other
// shape yields the empty string.
func ExtractText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var parts []string
		for _, el := range c {
			block, ok := el.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := block["type"].(string); t != "text" {
				continue
			}
			text, ok := block["text"].(string)
			if !ok {
				continue
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

// ExtractToolInvocations returns every well-formed tool_use block in an
// untyped content value, in order. Blocks missing a string id or name are
// dropped, not substituted with defaults. Non-sequence content yields nil.
func ExtractToolInvocations(content any) []ToolInvocation {
	seq, ok := content.([]any)
	if !ok {
		return nil
	}

	var out []ToolInvocation
	for _, el := range seq {
		block, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := block["type"].(string); t != "tool_use" {
			continue
		}
		id, ok := block["id"].(string)
		if !ok {
			continue
		}
		name, ok := block["name"].(string)
		if !ok {
			continue
		}

		inv := ToolInvocation{ID: id, Name: name}
		if input, ok := block["input"].(map[string]any); ok {
			inv.Input = input
		}
		out = append(out, inv)
	}
	return out
}

// ExtractToolResults returns every well-formed tool_result block in an
// untyped content value, in order. Blocks missing a string tool_use_id are
// dropped. Non-sequence content yields nil.
func ExtractToolResults(content any) []ToolResult {
	seq, ok := content.([]any)
	if !ok {
		return nil
	}

	var out []ToolResult
	for _, el := range seq {
		block, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := block["type"].(string); t != "tool_result" {
			continue
		}
		id, ok := block["tool_use_id"].(string)
		if !ok {
			continue
		}

		res := ToolResult{ToolUseID: id}
		if isErr, ok := block["is_error"].(bool); ok {
			res.IsError = isErr
		}
		if cost, ok := block["total_cost_usd"].(float64); ok {
			res.CostUSD = cost
		} else if cost, ok := block["cost_usd"].(float64); ok {
			res.CostUSD = cost
		}
		out = append(out, res)
	}
	return out
}

// InputString returns the named input field of a tool invocation when it is
// a non-empty string, else the fallback.
func (t ToolInvocation) InputString(key, fallback string) string {
	if t.Input == nil {
		return fallback
	}
	if v, ok := t.Input[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
