package reconcile

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

type stubInstaller struct {
	installed interfaces.InstalledSet
	reconcile error
	removeErr map[string]error
	removed   []string
}

func (s *stubInstaller) Reconcile(_ context.Context, _ []*interfaces.PluginSpec) (interfaces.InstalledSet, error) {
	if s.reconcile != nil {
		return nil, s.reconcile
	}
	return s.installed, nil
}

func (s *stubInstaller) Remove(_ context.Context, identifier string) error {
	s.removed = append(s.removed, identifier)
	if err, ok := s.removeErr[identifier]; ok {
		return err
	}
	return nil
}

func (s *stubInstaller) OnFirstLoadComplete(fn func()) {
	if fn != nil {
		fn()
	}
}

func TestDesiredSetExcludesManual(t *testing.T) {
	specs := []*interfaces.PluginSpec{
		{Identifier: "a/b"},
		{Identifier: "c/d", Manual: true},
	}
	desired := DesiredSet(specs)

	if !desired.Contains("a/b") {
		t.Fatalf("expected a/b in desired set")
	}
	if desired.Contains("c/d") {
		t.Fatalf("manual specs must not be reconciled")
	}
}

func TestDesiredSetTagsLocalAndImportSpecs(t *testing.T) {
	specs := []*interfaces.PluginSpec{
		{Identifier: "local-dir", Dir: "~/projects/mine"},
		{Identifier: "extras", Import: "extras.lang"},
	}
	desired := DesiredSet(specs)

	if !desired.Contains("dir:~/projects/mine") {
		t.Fatalf("dir spec must carry dir: tag, got %v", desired)
	}
	if !desired.Contains("import:extras.lang") {
		t.Fatalf("import spec must carry import: tag, got %v", desired)
	}
}

func TestReconcileRemovesOrphans(t *testing.T) {
	installer := &stubInstaller{installed: interfaces.InstalledSet{
		"a/b": {}, "old/gone": {}, "also/gone": {},
	}}
	r := New(installer, nil)

	result, err := r.Reconcile(context.Background(), []*interfaces.PluginSpec{{Identifier: "a/b"}})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	want := []string{"also/gone", "old/gone"}
	if len(result.Removals) != 2 || result.Removals[0] != want[0] || result.Removals[1] != want[1] {
		t.Fatalf("expected removals %v, got %v", want, result.Removals)
	}
	sort.Strings(installer.removed)
	if len(installer.removed) != 2 {
		t.Fatalf("expected two Remove calls, got %v", installer.removed)
	}
}

func TestReconcileEmptyDesiredSkipsRemovals(t *testing.T) {
	installer := &stubInstaller{installed: interfaces.InstalledSet{"a/b": {}}}
	r := New(installer, nil)

	result, err := r.Reconcile(context.Background(), nil)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if len(result.Removals) != 0 || len(installer.removed) != 0 {
		t.Fatalf("empty desired set must not trigger removals")
	}
}

func TestReconcileRemovalFailuresAreIndependent(t *testing.T) {
	installer := &stubInstaller{
		installed: interfaces.InstalledSet{"a/b": {}, "bad/one": {}, "old/gone": {}},
		removeErr: map[string]error{"bad/one": errors.New("busy")},
	}
	r := New(installer, nil)

	result, err := r.Reconcile(context.Background(), []*interfaces.PluginSpec{{Identifier: "a/b"}})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0] != "bad/one" {
		t.Fatalf("expected bad/one recorded as failed, got %v", result.Failed)
	}
	if len(installer.removed) != 2 {
		t.Fatalf("failure must not stop remaining removals, got %v", installer.removed)
	}
}

func TestReconcileInstallerErrorPropagates(t *testing.T) {
	installer := &stubInstaller{reconcile: errors.New("git unreachable")}
	r := New(installer, nil)

	if _, err := r.Reconcile(context.Background(), nil); err == nil {
		t.Fatalf("expected installer error to propagate")
	}
}
