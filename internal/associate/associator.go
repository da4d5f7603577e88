package associate

import (
	"regexp"
	"strings"

	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// requireRe finds a call to the module-load primitive with a string-literal
// argument: require("name"), require('name'), or require "name".
var requireRe = regexp.MustCompile(`require\s*\(?\s*["']([^"']+)["']`)

// Map links setup-entry block indices to the plugin identifier they
// configure. The association is advisory, not authoritative: a missing
// association is not an error.
type Map map[int]string

// Record converts the map into the persistable record shape.
func (m Map) Record() interfaces.AssociationRecord {
	record := make(interfaces.AssociationRecord, len(m))
	for index, identifier := range m {
		record[index] = identifier
	}
	return record
}

// Associator links free-form setup entries to the plugin they configure.
type Associator struct {
	logger interfaces.Logger
}

// New constructs an Associator. The logger may be nil.
func New(logger interfaces.Logger) *Associator {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Associator{logger: logger}
}

// Associate runs two passes over the plain-text setup entries. Closure
// entries are never scanned. Pass 1 extracts a require()-literal; pass 2
// substring-searches every spec identifier (in spec order) against entries
// still unassociated. At most one association per entry: the first match
// wins and is never overwritten.
func (a *Associator) Associate(specs []*interfaces.PluginSpec, entries []*interfaces.SetupEntry) Map {
	result := Map{}

	for _, entry := range entries {
		if entry.Source == "" {
			continue
		}
		if m := requireRe.FindStringSubmatch(entry.Source); m != nil {
			result[entry.Index] = m[1]
			a.logger.Debug("associate.direct",
				"entry_index", entry.Index,
				"identifier", m[1],
			)
		}
	}

	for _, spec := range specs {
		if spec.Identifier == "" {
			continue
		}
		for _, entry := range entries {
			if entry.Source == "" {
				continue
			}
			if _, taken := result[entry.Index]; taken {
				continue
			}
			if strings.Contains(entry.Source, spec.Identifier) {
				result[entry.Index] = spec.Identifier
				a.logger.Debug("associate.cooccurrence",
					"entry_index", entry.Index,
					"identifier", spec.Identifier,
				)
			}
		}
	}

	return result
}
