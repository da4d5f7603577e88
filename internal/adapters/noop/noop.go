// Package noop provides inert adapter implementations. They back dry
// runs and tests where no editor or state directory is available.
package noop

import (
	"context"

	"github.com/iansherr/nvim-initmd/internal/reconcile"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Installer accepts every spec without touching any install directory.
type Installer struct{}

func NewInstaller() *Installer { return &Installer{} }

// Reconcile reports every non-manual spec as installed, keyed by the same
// tagged identity the reconciler's desired set uses.
func (i *Installer) Reconcile(_ context.Context, specs []*interfaces.PluginSpec) (interfaces.InstalledSet, error) {
	installed := make(interfaces.InstalledSet, len(specs))
	for _, spec := range specs {
		if spec.Manual {
			continue
		}
		installed[reconcile.Identifier(spec)] = struct{}{}
	}
	return installed, nil
}

func (i *Installer) Remove(context.Context, string) error { return nil }

func (i *Installer) OnFirstLoadComplete(fn func()) {
	if fn != nil {
		fn()
	}
}

// StateStore discards writes and reports every prior run as empty.
type StateStore struct{}

func NewStateStore() *StateStore { return &StateStore{} }

func (s *StateStore) LoadLedger(context.Context) (interfaces.Ledger, error) {
	return interfaces.Ledger{}, nil
}

func (s *StateStore) SaveLedger(context.Context, interfaces.Ledger) error { return nil }

func (s *StateStore) SaveAssociations(context.Context, interfaces.AssociationRecord) error {
	return nil
}

func (s *StateStore) SaveBlockDump(context.Context, []string) error { return nil }

func (s *StateStore) LoadBlockDump(context.Context) ([]string, error) { return nil, nil }

func (s *StateStore) SaveRunMetadata(context.Context, interfaces.RunMetadata) error { return nil }
