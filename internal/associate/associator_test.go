package associate

import (
	"context"
	"testing"

	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

func specsFor(identifiers ...string) []*interfaces.PluginSpec {
	specs := make([]*interfaces.PluginSpec, 0, len(identifiers))
	for _, id := range identifiers {
		specs = append(specs, &interfaces.PluginSpec{Identifier: id})
	}
	return specs
}

func entry(index int, source string) *interfaces.SetupEntry {
	return &interfaces.SetupEntry{Index: index, Source: source}
}

func TestAssociateDirectReference(t *testing.T) {
	a := New(nil)

	entries := []*interfaces.SetupEntry{
		entry(1, `require("telescope").setup({})`),
	}
	result := a.Associate(specsFor("nvim-telescope/telescope.nvim"), entries)
	if result[1] != "telescope" {
		t.Fatalf("expected direct require literal, got %q", result[1])
	}
}

func TestAssociateDirectReferenceSingleQuotes(t *testing.T) {
	a := New(nil)

	result := a.Associate(nil, []*interfaces.SetupEntry{
		entry(1, `require 'mini.surround'`),
	})
	if result[1] != "mini.surround" {
		t.Fatalf("expected quoted literal, got %q", result[1])
	}
}

func TestAssociateCoOccurrence(t *testing.T) {
	a := New(nil)

	entries := []*interfaces.SetupEntry{
		entry(2, `-- tweak a/b after load
vim.g.ab_flag = true -- configures a/b`),
	}
	result := a.Associate(specsFor("a/b"), entries)
	if result[2] != "a/b" {
		t.Fatalf("expected co-occurrence association, got %q", result[2])
	}
}

func TestAssociateFirstSpecWins(t *testing.T) {
	a := New(nil)

	entries := []*interfaces.SetupEntry{
		entry(1, "mentions first/one and second/two"),
	}
	result := a.Associate(specsFor("first/one", "second/two"), entries)
	if result[1] != "first/one" {
		t.Fatalf("expected first spec in order to win, got %q", result[1])
	}
}

func TestAssociateDirectPassNotOverwritten(t *testing.T) {
	a := New(nil)

	entries := []*interfaces.SetupEntry{
		entry(1, `require("gitsigns") -- also mentions a/b`),
	}
	result := a.Associate(specsFor("a/b"), entries)
	if result[1] != "gitsigns" {
		t.Fatalf("pass 2 must not overwrite pass 1, got %q", result[1])
	}
}

func TestAssociateSkipsClosureEntries(t *testing.T) {
	a := New(nil)

	entries := []*interfaces.SetupEntry{
		{Index: 1, Action: func(context.Context) error { return nil }},
	}
	result := a.Associate(specsFor("a/b"), entries)
	if len(result) != 0 {
		t.Fatalf("closure entries must not be scanned, got %#v", result)
	}
}

func TestAssociateUnmatchedEntryStaysUnassociated(t *testing.T) {
	a := New(nil)

	entries := []*interfaces.SetupEntry{
		entry(1, "vim.opt.number = true"),
	}
	result := a.Associate(specsFor("a/b"), entries)
	if _, ok := result[1]; ok {
		t.Fatalf("expected no association, got %q", result[1])
	}
}
