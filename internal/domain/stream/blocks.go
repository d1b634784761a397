package stream

import "encoding/json"

// Block kinds.
const (
	BlockText    = "text"
	BlockToolUse = "tool_use"
)

// Block is the tagged variant the rest of the engine sees instead of raw
// untyped content: either a text fragment or a tool invocation record.
type Block struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

// Blocks projects untyped content onto an ordered sequence of well-formed
// blocks. A plain string becomes a single text block; malformed sequence
// elements are skipped with the same rules as the extractors.
func Blocks(content any) []Block {
	switch c := content.(type) {
	case string:
		return []Block{{Type: BlockText, Text: c}}
	case []any:
		var out []Block
		for _, el := range c {
			raw, ok := el.(map[string]any)
			if !ok {
				continue
			}
			switch t, _ := raw["type"].(string); t {
			case BlockText:
				if text, ok := raw["text"].(string); ok {
					out = append(out, Block{Type: BlockText, Text: text})
				}
			case BlockToolUse:
				id, okID := raw["id"].(string)
				name, okName := raw["name"].(string)
				if !okID || !okName {
					continue
				}
				b := Block{Type: BlockToolUse, ID: id, Name: name}
				if input, ok := raw["input"].(map[string]any); ok {
					b.Input = input
				}
				out = append(out, b)
			}
		}
		return out
	default:
		return nil
	}
}

// EncodeBlocks serializes blocks for transcript storage. Empty input yields
// the empty string. Encoding is deterministic (map keys are sorted by
// encoding/json), so byte equality works for transcript deduplication.
func EncodeBlocks(blocks []Block) string {
	if len(blocks) == 0 {
		return ""
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return ""
	}
	return string(data)
}
