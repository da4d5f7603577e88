package extract

import (
	"strings"
	"testing"

	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

func doc(path, body string) *interfaces.Document {
	return &interfaces.Document{FilePath: path, Body: []byte(body)}
}

func TestExtractMultiLineBlock(t *testing.T) {
	e := New(Config{}, nil)

	body := strings.Join([]string{
		"# Plugins",
		"Some prose.",
		"```lua",
		"return {",
		"  \"owner/repo\",",
		"",
		"  opts = {},",
		"}",
		"```",
	}, "\n")

	blocks := e.Extract(doc("init.md", body))
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}

	got := blocks[0]
	if got.Index != 1 {
		t.Fatalf("expected index 1, got %d", got.Index)
	}
	if got.Section != SectionPlugins {
		t.Fatalf("expected plugins section, got %s", got.Section)
	}
	if !strings.Contains(got.Text, "opts = {},") {
		t.Fatalf("expected interior line preserved, got %q", got.Text)
	}
	if !strings.Contains(got.Raw, "\n\n") {
		t.Fatalf("expected interior blank line preserved, got %q", got.Raw)
	}
	if strings.Contains(got.Text, "```") {
		t.Fatalf("fence lines must be stripped, got %q", got.Text)
	}
}

func TestExtractSingleLineBlock(t *testing.T) {
	e := New(Config{}, nil)

	blocks := e.Extract(doc("init.md", "```lua vim.opt.number = true```"))
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "vim.opt.number = true" {
		t.Fatalf("unexpected content: %q", blocks[0].Text)
	}
	if blocks[0].Section != SectionUnspecified {
		t.Fatalf("expected unspecified section, got %s", blocks[0].Section)
	}
}

func TestExtractIgnoresOtherLanguages(t *testing.T) {
	e := New(Config{}, nil)

	body := strings.Join([]string{
		"```bash",
		"echo hi",
		"```",
		"```lua",
		"print(1)",
		"```",
		"```vim",
		"set number",
		"```",
	}, "\n")

	blocks := e.Extract(doc("init.md", body))
	if len(blocks) != 1 {
		t.Fatalf("expected 1 lua block, got %d", len(blocks))
	}
	if blocks[0].Text != "print(1)" {
		t.Fatalf("unexpected content: %q", blocks[0].Text)
	}
}

func TestExtractSectionTracking(t *testing.T) {
	e := New(Config{}, nil)

	body := strings.Join([]string{
		"```lua",
		"a = 1",
		"```",
		"# Main",
		"```lua",
		"b = 2",
		"```",
		"# Plugins",
		"```lua",
		"c = 3",
		"```",
		"# Notes",
		"```lua",
		"d = 4",
		"```",
	}, "\n")

	blocks := e.Extract(doc("init.md", body))
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(blocks))
	}

	want := []Section{SectionUnspecified, SectionMain, SectionPlugins, SectionUnspecified}
	for i, section := range want {
		if blocks[i].Section != section {
			t.Fatalf("block %d: expected section %s, got %s", i+1, section, blocks[i].Section)
		}
	}
}

func TestExtractAllConcatenationOrder(t *testing.T) {
	e := New(Config{}, nil)

	first := doc("a.md", "```lua\nfirst = 1\n```")
	second := doc("b.md", "```lua\nsecond = 2\n```\n```lua\nthird = 3\n```")

	blocks := e.ExtractAll([]*interfaces.Document{first, second})
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}

	concatenated := e.Extract(doc("all.md", string(first.Body)+"\n"+string(second.Body)))
	if len(concatenated) != len(blocks) {
		t.Fatalf("concatenated extraction yielded %d blocks, want %d", len(concatenated), len(blocks))
	}
	for i := range blocks {
		if blocks[i].Index != i+1 {
			t.Fatalf("block %d: expected index %d, got %d", i, i+1, blocks[i].Index)
		}
		if blocks[i].Text != concatenated[i].Text {
			t.Fatalf("block %d: %q != %q", i, blocks[i].Text, concatenated[i].Text)
		}
	}
}

func TestExtractMalformedSingleLineFallback(t *testing.T) {
	e := New(Config{}, nil)

	// No whitespace after the language tag defeats the pattern match; the
	// scanner strips only the fixed-length opening tag.
	blocks := e.Extract(doc("init.md", "```luaprint(9)```"))
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "print(9)```" {
		t.Fatalf("expected verbatim remainder, got %q", blocks[0].Text)
	}
}

func TestExtractEmptyDocumentYieldsNothing(t *testing.T) {
	e := New(Config{}, nil)

	if blocks := e.Extract(doc("init.md", "just prose, no fences")); len(blocks) != 0 {
		t.Fatalf("expected no blocks, got %d", len(blocks))
	}
}
