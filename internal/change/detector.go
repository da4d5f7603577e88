package change

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/iansherr/nvim-initmd/internal/extract"
	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Report lists the block indices whose content differs from the previous
// run's ledger.
type Report struct {
	// Changed holds current indices with no prior hash or a differing hash.
	Changed []int
	// Removed holds prior indices beyond the current run's block count.
	Removed []int
}

// Detector hashes blocks and diffs them against the persisted ledger.
type Detector struct {
	store  interfaces.StateStore
	logger interfaces.Logger
}

// NewDetector constructs a Detector. The logger may be nil.
func NewDetector(store interfaces.StateStore, logger interfaces.Logger) *Detector {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Detector{store: store, logger: logger}
}

// Hash computes the stable content hash for one block's normalized text.
// Changing the algorithm invalidates all prior ledgers; no backward
// compatibility across algorithms is attempted.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Detect hashes the ordered block sequence, compares it against the previous
// ledger, and persists the current ledger wholesale. A missing or corrupt
// previous ledger is treated as all-absent. Ledger write failures are logged
// and reported through the returned error alongside a valid Report; the
// caller must treat them as non-fatal.
func (d *Detector) Detect(ctx context.Context, blocks []extract.Block) (Report, error) {
	previous := interfaces.Ledger{}
	if d.store != nil {
		loaded, err := d.store.LoadLedger(ctx)
		if err != nil {
			d.logger.Warn("change.ledger.load_failed", "error", err)
		} else if loaded != nil {
			previous = loaded
		}
	}

	current := make(interfaces.Ledger, len(blocks))
	report := Report{}

	for _, block := range blocks {
		hash := Hash(block.Text)
		current[block.Index] = hash
		prior, ok := previous[block.Index]
		if !ok || prior != hash {
			report.Changed = append(report.Changed, block.Index)
		}
	}

	for index := range previous {
		if index > len(blocks) {
			report.Removed = append(report.Removed, index)
		}
	}
	sort.Ints(report.Removed)

	if d.store != nil {
		// The ledger is replaced unconditionally, even for a run with zero
		// blocks; that empty ledger is intentional.
		if err := d.store.SaveLedger(ctx, current); err != nil {
			d.logger.Warn("change.ledger.save_failed", "error", err)
			return report, err
		}
	}

	return report, nil
}
