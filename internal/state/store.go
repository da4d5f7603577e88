package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

const (
	ledgerFile       = "ledger.yml"
	associationsFile = "associations.yml"
	dumpFile         = "blocks.yml"
	runFile          = "run.yml"
)

// ledgerSchema constrains the persisted ledger record: integer-string indices
// mapped to SHA-256 hex digests. Anything else is treated as corrupt.
const ledgerSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"patternProperties": {
		"^[1-9][0-9]*$": {
			"type": "string",
			"pattern": "^[0-9a-f]{64}$"
		}
	},
	"additionalProperties": false
}`

// Config locates the state directory shared by all persisted records.
type Config struct {
	Dir string
}

// Store persists the pipeline's run records as YAML files under a state
// directory. Writes are atomic (temp file plus rename); reads tolerate
// missing or corrupt files by returning empty records.
type Store struct {
	dir    string
	schema *jsonschema.Schema
	logger interfaces.Logger
}

var _ interfaces.StateStore = (*Store)(nil)

// NewStore constructs a Store rooted at cfg.Dir. The logger may be nil.
func NewStore(cfg Config, logger interfaces.Logger) (*Store, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, fmt.Errorf("state store: directory is required")
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("ledger.schema.json", strings.NewReader(ledgerSchema)); err != nil {
		return nil, fmt.Errorf("state store: add ledger schema: %w", err)
	}
	schema, err := compiler.Compile("ledger.schema.json")
	if err != nil {
		return nil, fmt.Errorf("state store: compile ledger schema: %w", err)
	}

	return &Store{dir: dir, schema: schema, logger: logger}, nil
}

// LoadLedger reads the previous run's ledger. A missing, unreadable, or
// schema-invalid file yields an empty ledger with a warning, never an error:
// the change detector treats absence as all-changed.
func (s *Store) LoadLedger(ctx context.Context) (interfaces.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, ledgerFile))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("state.ledger.read_failed", "error", err)
		}
		return interfaces.Ledger{}, nil
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("state.ledger.corrupt", "error", err)
		return interfaces.Ledger{}, nil
	}
	if err := s.schema.Validate(raw); err != nil {
		s.logger.Warn("state.ledger.schema_invalid", "error", err)
		return interfaces.Ledger{}, nil
	}

	ledger := make(interfaces.Ledger, len(raw))
	for key, value := range raw {
		index, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		hash, ok := value.(string)
		if !ok {
			continue
		}
		ledger[index] = hash
	}
	return ledger, nil
}

// SaveLedger replaces the persisted ledger wholesale, key-ordered.
func (s *Store) SaveLedger(ctx context.Context, ledger interfaces.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeRecord(ledgerFile, indexedRecord(mapToStringKeys(ledger)))
}

// SaveAssociations writes the association record. The pipeline never reads
// it back; it exists for external inspection.
func (s *Store) SaveAssociations(ctx context.Context, record interfaces.AssociationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeRecord(associationsFile, indexedRecord(mapToStringKeys(record)))
}

// SaveBlockDump writes the extracted block texts in order.
func (s *Store) SaveBlockDump(ctx context.Context, blocks []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("state store: marshal block dump: %w", err)
	}
	return s.writeFileAtomic(dumpFile, data)
}

// LoadBlockDump reads the previous run's block dump; missing or corrupt
// files yield nil.
func (s *Store) LoadBlockDump(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, dumpFile))
	if err != nil {
		return nil, nil
	}
	var blocks []string
	if err := yaml.Unmarshal(data, &blocks); err != nil {
		s.logger.Warn("state.dump.corrupt", "error", err)
		return nil, nil
	}
	return blocks, nil
}

// SaveRunMetadata writes bookkeeping for the completed run.
func (s *Store) SaveRunMetadata(ctx context.Context, meta interfaces.RunMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("state store: marshal run metadata: %w", err)
	}
	return s.writeFileAtomic(runFile, data)
}

// indexedRecord renders an index-keyed record as key-ordered YAML so diffs
// between runs stay readable.
func indexedRecord(entries map[string]string) []byte {
	keys := make([]int, 0, len(entries))
	for key := range entries {
		if index, err := strconv.Atoi(key); err == nil {
			keys = append(keys, index)
		}
	}
	sort.Ints(keys)

	var builder strings.Builder
	for _, index := range keys {
		builder.WriteString(strconv.Itoa(index))
		builder.WriteString(": ")
		builder.WriteString(strconv.Quote(entries[strconv.Itoa(index)]))
		builder.WriteByte('\n')
	}
	if builder.Len() == 0 {
		builder.WriteString("{}\n")
	}
	return []byte(builder.String())
}

func mapToStringKeys[V ~string](in map[int]V) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[strconv.Itoa(key)] = string(value)
	}
	return out
}

func (s *Store) writeRecord(name string, data []byte) error {
	return s.writeFileAtomic(name, data)
}

// writeFileAtomic writes data to a temp file in the state directory and
// renames it into place, so readers never observe a partial record.
func (s *Store) writeFileAtomic(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("state store: mkdir %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("state store: create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("state store: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("state store: close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("state store: rename %s: %w", name, err)
	}
	return nil
}
