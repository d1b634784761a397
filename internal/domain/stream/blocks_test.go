package stream

import "testing"

func TestBlocks_PlainString(t *testing.T) {
	blocks := Blocks("hello")
	if len(blocks) != 1 || blocks[0].Type != BlockText || blocks[0].Text != "hello" {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}
}

func TestBlocks_MixedSequence(t *testing.T) {
	content := unmarshal(t, `[
		{"type":"text","text":"intro"},
		{"type":"tool_use","id":"t1","name":"Task","input":{"description":"x"}},
		{"type":"tool_use","name":"broken"},
		{"type":"image","source":"..."},
		"not a block"
	]`)
	blocks := Blocks(content)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Type != BlockText || blocks[1].Type != BlockToolUse {
		t.Fatalf("unexpected block order: %+v", blocks)
	}
	if blocks[1].ID != "t1" || blocks[1].Input["description"] != "x" {
		t.Fatalf("tool_use block incomplete: %+v", blocks[1])
	}
}

func TestBlocks_NonContentShape(t *testing.T) {
	if got := Blocks(42.0); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestEncodeBlocks_Empty(t *testing.T) {
	if got := EncodeBlocks(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestEncodeBlocks_Deterministic(t *testing.T) {
	blocks := []Block{
		{Type: BlockText, Text: "a"},
		{Type: BlockToolUse, ID: "t1", Name: "Task", Input: map[string]any{"b": "2", "a": "1"}},
	}
	first := EncodeBlocks(blocks)
	second := EncodeBlocks(blocks)
	if first == "" || first != second {
		t.Fatalf("expected stable encoding, got %q vs %q", first, second)
	}
}
