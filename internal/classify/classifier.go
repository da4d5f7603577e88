package classify

import (
	"regexp"
	"strings"

	"github.com/iansherr/nvim-initmd/internal/extract"
	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Kind is the syntactic classification of a block, decided by a strict
// ordered rule list. The first matching rule wins: later kinds are
// intentionally broader fallbacks, so the order is a contract.
type Kind int

const (
	// KindDisabled marks blocks starting with a disable marker; they are
	// dropped entirely.
	KindDisabled Kind = iota
	// KindBareReference marks single-line blocks naming a plugin directly
	// ("owner/repo").
	KindBareReference
	// KindSpec marks blocks shaped like a plugin spec: a table literal, a
	// returned table literal, or a conventionally named local table.
	KindSpec
	// KindSetupFunction marks blocks declaring a named setup function.
	KindSetupFunction
	// KindFreeForm marks everything else: imperative setup code compiled
	// and run at execution time.
	KindFreeForm
)

// String renders the kind label used in log entries.
func (k Kind) String() string {
	switch k {
	case KindDisabled:
		return "disabled"
	case KindBareReference:
		return "bare_reference"
	case KindSpec:
		return "spec"
	case KindSetupFunction:
		return "setup_function"
	default:
		return "free_form"
	}
}

// Classified carries a block's syntactic classification. Evaluation and
// product construction happen later in the builder.
type Classified struct {
	Block extract.Block
	Kind  Kind
	// Manual is set by a "@ manual" marker line and propagates to every
	// plugin spec the block produces.
	Manual bool
	// Text is the block's normalized text with marker lines stripped.
	Text string
	// DeclaredName holds the local-table or function name for shapes whose
	// evaluation needs an appended return statement.
	DeclaredName string
}

var (
	disableMarkerRe = regexp.MustCompile(`^(?:--+\s*)?@\s*disable\b`)
	manualMarkerRe  = regexp.MustCompile(`^(?:--+\s*)?@\s*manual\b`)

	tableLiteralRe = regexp.MustCompile(`^(?:return\s*)?\{`)
	localTableRe   = regexp.MustCompile(`^local\s+(plugins|specs?)\s*=\s*\{`)
	setupFuncRe    = regexp.MustCompile(`^(?:local\s+)?function\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
)

// reserved leading keywords that disqualify a single-line block from being a
// bare plugin reference: they indicate an expression, statement, or
// declaration instead of a naked token.
var reservedLeading = []string{"return", "local", "require"}

// Classifier assigns kinds to extracted blocks.
type Classifier struct {
	logger interfaces.Logger
}

// New constructs a Classifier. The logger may be nil.
func New(logger interfaces.Logger) *Classifier {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Classifier{logger: logger}
}

// Classify applies the ordered decision list to one block. It is pure with
// respect to the block: classifying the same normalized text twice yields
// the same classification.
func (c *Classifier) Classify(block extract.Block) Classified {
	text, manual, disabled := stripMarkers(block.Text)

	classified := Classified{
		Block:  block,
		Manual: manual,
		Text:   text,
	}

	switch {
	case disabled:
		classified.Kind = KindDisabled
	case isBareReference(text):
		classified.Kind = KindBareReference
	case localTableRe.MatchString(text):
		classified.Kind = KindSpec
		classified.DeclaredName = localTableRe.FindStringSubmatch(text)[1]
	case tableLiteralRe.MatchString(text):
		classified.Kind = KindSpec
	case setupFuncRe.MatchString(text):
		classified.Kind = KindSetupFunction
		classified.DeclaredName = setupFuncRe.FindStringSubmatch(text)[1]
	default:
		classified.Kind = KindFreeForm
	}

	blockLogger := logging.WithBlockContext(c.logger, block.Index, string(block.Section), classified.Kind.String())
	blockLogger.Debug("classify.block", "document", block.Document)

	return classified
}

// ClassifyAll classifies every block in order.
func (c *Classifier) ClassifyAll(blocks []extract.Block) []Classified {
	out := make([]Classified, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, c.Classify(block))
	}
	return out
}

// stripMarkers consumes leading marker lines ("@ disable", "@ manual",
// optionally behind a Lua comment prefix) and returns the remaining text
// plus the recorded flags. Markers are independent of each other and of the
// classification that follows.
func stripMarkers(text string) (remainder string, manual, disabled bool) {
	lines := strings.Split(text, "\n")
	start := 0
	for start < len(lines) {
		line := strings.TrimSpace(lines[start])
		switch {
		case disableMarkerRe.MatchString(line):
			disabled = true
		case manualMarkerRe.MatchString(line):
			manual = true
		default:
			return strings.TrimSpace(strings.Join(lines[start:], "\n")), manual, disabled
		}
		start++
	}
	return "", manual, disabled
}

// isBareReference recognises single-line blocks that name a plugin directly:
// no embedded newline, no reserved leading keyword, and a path separator in
// the token.
func isBareReference(text string) bool {
	if text == "" || strings.Contains(text, "\n") {
		return false
	}
	for _, keyword := range reservedLeading {
		if strings.HasPrefix(text, keyword) {
			return false
		}
	}
	return strings.Contains(text, "/")
}
