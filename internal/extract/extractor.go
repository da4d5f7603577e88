package extract

import (
	"regexp"
	"strings"

	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Section identifies which document heading a block was found under.
type Section string

const (
	// SectionMain scopes blocks found under the "Main" heading.
	SectionMain Section = "main"
	// SectionPlugins scopes blocks found under the "Plugins" heading.
	SectionPlugins Section = "plugins"
	// SectionUnspecified is the sentinel for blocks with no preceding
	// recognised heading.
	SectionUnspecified Section = "unspecified"
)

// Block is one fenced region of Lua source extracted from a document.
// Identity is positional: Index is 1-based and stable within a run, so
// reordering documents changes identities.
type Block struct {
	Index    int
	Document string
	Section  Section
	// Raw is the fenced content exactly as it appeared between the fences.
	Raw string
	// Text is Raw trimmed of leading and trailing whitespace.
	Text string
}

// Config controls fence scanning.
type Config struct {
	// Language is the fence tag identifying embedded blocks (defaults to
	// "lua").
	Language string
	// MainHeading and PluginsHeading name the section headings recognised
	// by the scanner (defaults "Main" and "Plugins").
	MainHeading    string
	PluginsHeading string
}

// Extractor scans literate documents for fenced Lua blocks.
type Extractor struct {
	language       string
	mainHeading    string
	pluginsHeading string
	logger         interfaces.Logger

	headingRe *regexp.Regexp
	singleRe  *regexp.Regexp
}

// New constructs an Extractor. The logger may be nil.
func New(cfg Config, logger interfaces.Logger) *Extractor {
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "lua"
	}
	mainHeading := strings.TrimSpace(cfg.MainHeading)
	if mainHeading == "" {
		mainHeading = "Main"
	}
	pluginsHeading := strings.TrimSpace(cfg.PluginsHeading)
	if pluginsHeading == "" {
		pluginsHeading = "Plugins"
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	return &Extractor{
		language:       language,
		mainHeading:    mainHeading,
		pluginsHeading: pluginsHeading,
		logger:         logger,
		headingRe:      regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.+?)\s*#*\s*$`),
		singleRe:       regexp.MustCompile("^```" + regexp.QuoteMeta(language) + "\\s+(.*?)```\\s*$"),
	}
}

type scanState struct {
	section Section
	next    int
}

// ExtractAll scans every document in order, carrying section state and block
// indices across document boundaries. The result equals scanning a single
// concatenated document, given the same document order.
func (e *Extractor) ExtractAll(docs []*interfaces.Document) []Block {
	state := &scanState{section: SectionUnspecified, next: 1}
	var blocks []Block
	for _, doc := range docs {
		blocks = append(blocks, e.scan(doc, state)...)
	}
	return blocks
}

// Extract scans a single document with fresh section state.
func (e *Extractor) Extract(doc *interfaces.Document) []Block {
	state := &scanState{section: SectionUnspecified, next: 1}
	return e.scan(doc, state)
}

func (e *Extractor) scan(doc *interfaces.Document, state *scanState) []Block {
	if doc == nil {
		return nil
	}
	if section := e.sectionFor(doc.FrontMatter.Section); section != "" {
		state.section = section
	}

	lines := strings.Split(string(doc.Body), "\n")
	var blocks []Block

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := e.headingRe.FindStringSubmatch(line); m != nil {
			if section := e.sectionFor(m[1]); section != "" {
				state.section = section
			} else {
				state.section = SectionUnspecified
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "```") {
			continue
		}

		rest := strings.TrimPrefix(trimmed, "```")
		if strings.TrimSpace(rest) == "" {
			// Stray closing fence with no open region.
			continue
		}

		if strings.HasPrefix(rest, e.language) {
			tail := rest[len(e.language):]
			switch {
			case strings.Contains(tail, "```"):
				// Opening and closing delimiters on the same line.
				blocks = append(blocks, e.emit(doc, state, e.singleLineContent(trimmed)))
				continue
			case strings.TrimSpace(tail) == "" || strings.HasPrefix(tail, " ") || strings.HasPrefix(tail, "\t"):
				// Multi-line fence, possibly with a trailing info string.
				interior, next := e.collect(doc, lines, i)
				i = next
				blocks = append(blocks, e.emit(doc, state, strings.Join(interior, "\n")))
				continue
			}
			// A different language tag that merely begins with ours falls
			// through to the skip below.
		}

		if !strings.Contains(rest, "```") {
			// Foreign multi-line fence: skip its interior entirely so stray
			// lua fences inside it are never scanned.
			_, next := e.collect(doc, lines, i)
			i = next
		}
	}

	return blocks
}

// collect gathers interior lines from the fence opened at index open until
// the closing fence, returning the interior and the index of the closing
// line. An unterminated fence is reported and consumes the rest of the
// document, best-effort.
func (e *Extractor) collect(doc *interfaces.Document, lines []string, open int) ([]string, int) {
	var interior []string
	for i := open + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "```" {
			return interior, i
		}
		interior = append(interior, lines[i])
	}
	e.logger.Warn("extract.fence.unterminated", "document", doc.FilePath, "line", open+1)
	return interior, len(lines)
}

// singleLineContent extracts the content between the language tag and the
// closing delimiter. Malformed single-line fences fall back to stripping only
// the fixed-length opening tag and taking the remainder verbatim.
func (e *Extractor) singleLineContent(line string) string {
	if m := e.singleRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return strings.TrimPrefix(line, "```"+e.language)
}

func (e *Extractor) emit(doc *interfaces.Document, state *scanState, raw string) Block {
	block := Block{
		Index:    state.next,
		Document: doc.FilePath,
		Section:  state.section,
		Raw:      raw,
		Text:     strings.TrimSpace(raw),
	}
	state.next++
	return block
}

func (e *Extractor) sectionFor(heading string) Section {
	switch strings.ToLower(strings.TrimSpace(heading)) {
	case strings.ToLower(e.mainHeading):
		return SectionMain
	case strings.ToLower(e.pluginsHeading):
		return SectionPlugins
	default:
		return ""
	}
}
