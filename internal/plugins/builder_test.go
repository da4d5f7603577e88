package plugins

import (
	"context"
	"testing"

	"github.com/iansherr/nvim-initmd/internal/classify"
	"github.com/iansherr/nvim-initmd/internal/extract"
	"github.com/iansherr/nvim-initmd/internal/luaengine"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	engine := luaengine.New(luaengine.Config{}, nil)
	t.Cleanup(engine.Close)
	return NewBuilder(engine, nil)
}

func build(t *testing.T, texts ...string) (*Builder, []classify.Classified) {
	t.Helper()
	b := newTestBuilder(t)
	c := classify.New(nil)
	blocks := make([]extract.Block, 0, len(texts))
	for i, text := range texts {
		blocks = append(blocks, extract.Block{Index: i + 1, Text: text})
	}
	return b, c.ClassifyAll(blocks)
}

func TestBuildBareReference(t *testing.T) {
	b, classified := build(t, "owner/repo")

	specs, entries := b.Build(context.Background(), classified)
	if len(specs) != 1 || len(entries) != 0 {
		t.Fatalf("expected 1 spec and 0 entries, got %d/%d", len(specs), len(entries))
	}
	if specs[0].Identifier != "owner/repo" {
		t.Fatalf("unexpected identifier %q", specs[0].Identifier)
	}
}

func TestBuildDisabledProducesNothing(t *testing.T) {
	b, classified := build(t, "@ disable\nowner/repo")

	specs, entries := b.Build(context.Background(), classified)
	if len(specs) != 0 || len(entries) != 0 {
		t.Fatalf("disabled block produced %d specs and %d entries", len(specs), len(entries))
	}
}

func TestBuildSpecList(t *testing.T) {
	b, classified := build(t, `return {
  { "a/one", lazy = true },
  { "b/two" },
  "c/three",
}`)

	specs, entries := b.Build(context.Background(), classified)
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
	if specs[0].Identifier != "a/one" || specs[1].Identifier != "b/two" || specs[2].Identifier != "c/three" {
		t.Fatalf("unexpected spec order: %q %q %q", specs[0].Identifier, specs[1].Identifier, specs[2].Identifier)
	}
	if specs[0].Attributes["lazy"] != true {
		t.Fatalf("expected lazy attribute carried, got %#v", specs[0].Attributes)
	}
}

func TestBuildLocalDeclarationShape(t *testing.T) {
	b, classified := build(t, `local plugins = {
  { "a/one" },
}`)

	specs, _ := b.Build(context.Background(), classified)
	if len(specs) != 1 || specs[0].Identifier != "a/one" {
		t.Fatalf("expected declaration shape evaluated, got %+v", specs)
	}
}

func TestBuildTableLiteralWithoutReturn(t *testing.T) {
	b, classified := build(t, `{ "a/one" }`)

	specs, _ := b.Build(context.Background(), classified)
	if len(specs) != 1 || specs[0].Identifier != "a/one" {
		t.Fatalf("expected expression fallback compile, got %+v", specs)
	}
}

func TestBuildManualPropagatesThroughList(t *testing.T) {
	b, classified := build(t, "@ manual\nreturn {\n  { \"a/one\" },\n  { \"b/two\" },\n}")

	specs, _ := b.Build(context.Background(), classified)
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	for _, spec := range specs {
		if !spec.Manual {
			t.Fatalf("expected manual flag on %q", spec.Identifier)
		}
	}
}

func TestBuildSetupCapableTableBecomesEntry(t *testing.T) {
	b, classified := build(t, `return { setup = function() end }`)

	specs, entries := b.Build(context.Background(), classified)
	if len(specs) != 0 {
		t.Fatalf("expected no specs, got %d", len(specs))
	}
	if len(entries) != 1 || entries[0].Action == nil {
		t.Fatalf("expected one closure entry, got %+v", entries)
	}
}

func TestBuildSetupFunctionDeclaration(t *testing.T) {
	b, classified := build(t, "function configure()\n  marker = 1\nend")

	specs, entries := b.Build(context.Background(), classified)
	if len(specs) != 0 || len(entries) != 1 {
		t.Fatalf("expected one entry, got %d/%d", len(specs), len(entries))
	}
	if entries[0].Action == nil {
		t.Fatalf("expected callable entry")
	}
	if err := entries[0].Action(context.Background()); err != nil {
		t.Fatalf("entry action: %v", err)
	}
}

func TestBuildFreeFormEntry(t *testing.T) {
	b, classified := build(t, "vim.opt.number = true")

	specs, entries := b.Build(context.Background(), classified)
	if len(specs) != 0 || len(entries) != 1 {
		t.Fatalf("expected one free-form entry, got %d/%d", len(specs), len(entries))
	}
	if entries[0].Source != "vim.opt.number = true" {
		t.Fatalf("unexpected entry source %q", entries[0].Source)
	}
}

func TestBuildBrokenBlockDoesNotAbortRun(t *testing.T) {
	b, classified := build(t,
		`return { "a/one", `, // unterminated under every strategy
		"owner/repo",
	)

	specs, entries := b.Build(context.Background(), classified)
	if len(specs) != 1 || specs[0].Identifier != "owner/repo" {
		t.Fatalf("expected later block to survive, got %+v", specs)
	}
	if len(entries) != 0 {
		t.Fatalf("expected broken block dropped, got %d entries", len(entries))
	}
}

func TestBuildUnrecognizedShapeDemotedWithWarning(t *testing.T) {
	b, classified := build(t, `return { 1, 2, 3 }`)

	specs, entries := b.Build(context.Background(), classified)
	if len(specs) != 0 {
		t.Fatalf("expected no specs, got %d", len(specs))
	}
	if len(entries) != 1 || entries[0].Source == "" {
		t.Fatalf("expected best-effort free-form entry, got %+v", entries)
	}
}
