package stanza

import (
	"fmt"
	"strings"

	"github.com/zoro11031/pi-static-ip/internal/common"
)

// BodyMode selects how the lines belonging to an existing stanza are found.
type BodyMode int

const (
	// BodyStructural treats every line after the marker as body up to and
	// including the first blank line, stopping before the next section
	// keyword (interface, profile, ssid) or at the end of the document.
	BodyStructural BodyMode = iota

	// BodyFixed treats exactly BodyLines lines after the marker as body,
	// whatever they contain. This is the historical behaviour and can
	// swallow unrelated lines when the old stanza is shorter than expected.
	BodyFixed
)

// DefaultBodyLines is the historical size of a stanza body.
const DefaultBodyLines = 5

// sectionKeywords start a new block in dhcpcd.conf.
var sectionKeywords = []string{"interface", "profile", "ssid"}

func (m BodyMode) String() string {
	switch m {
	case BodyStructural:
		return "structural"
	case BodyFixed:
		return "fixed"
	default:
		return fmt.Sprintf("BodyMode(%d)", int(m))
	}
}

// ParseBodyMode converts a configuration value into a BodyMode.
func ParseBodyMode(s string) (BodyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "structural":
		return BodyStructural, nil
	case "fixed", "legacy":
		return BodyFixed, nil
	default:
		return BodyStructural, fmt.Errorf("unknown body mode %q (want structural or fixed)", s)
	}
}

// Options control how existing stanzas are recognised.
type Options struct {
	Body      BodyMode
	BodyLines int // only used by BodyFixed
}

// DefaultOptions returns the structural mode with the historical body size
// kept for callers that switch to BodyFixed.
func DefaultOptions() Options {
	return Options{Body: BodyStructural, BodyLines: DefaultBodyLines}
}

// Block is the half-open line range [Start, End) occupied by one stanza.
// Marker is the index of its "interface <name>" line. Start is Marker-1
// when a blank separator line in front of the marker belongs to the block.
type Block struct {
	Start  int
	Marker int
	End    int
}

// Len is the number of lines in the block.
func (b Block) Len() int {
	return b.End - b.Start
}

// Editor installs static stanzas into documents.
type Editor struct {
	opts Options
}

// NewEditor creates an Editor. A negative BodyLines is rejected.
func NewEditor(opts Options) (*Editor, error) {
	if opts.BodyLines < 0 {
		return nil, common.NewInvalidInputError(common.StepValidate,
			fmt.Sprintf("body line count must not be negative, got %d", opts.BodyLines), nil)
	}
	if opts.Body != BodyStructural && opts.Body != BodyFixed {
		return nil, common.NewInvalidInputError(common.StepValidate,
			fmt.Sprintf("unsupported body mode %s", opts.Body), nil)
	}
	return &Editor{opts: opts}, nil
}

// Options returns the options the editor was built with.
func (e *Editor) Options() Options {
	return e.opts
}

// Apply returns a copy of doc in which every existing stanza for iface has
// been removed and s has been appended after a blank separator line.
// Lines outside the removed blocks keep their content and relative order.
//
// The stanza's Interface field may be left empty; it is filled from iface.
// A non-empty Interface that disagrees with iface is an InvalidInput error.
func (e *Editor) Apply(doc Document, iface string, s Stanza) (Document, error) {
	if s.Interface == "" {
		s.Interface = iface
	}
	if s.Interface != iface {
		return nil, common.NewInvalidInputError(common.StepValidate,
			fmt.Sprintf("stanza is for interface %q but %q was requested", s.Interface, iface), nil)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := e.Remove(doc, iface)
	out = append(out, "")
	out = append(out, s.Lines()...)
	return out, nil
}

// Remove returns a copy of doc without any stanza for iface. Callers are
// expected to have validated iface.
func (e *Editor) Remove(doc Document, iface string) Document {
	blocks := e.Find(doc, iface)
	if len(blocks) == 0 {
		return doc.clone()
	}

	out := make(Document, 0, len(doc))
	next := 0
	for _, b := range blocks {
		out = append(out, doc[next:b.Start]...)
		next = b.End
	}
	return append(out, doc[next:]...)
}

// Find locates every stanza for iface, in document order. Blocks never
// overlap.
func (e *Editor) Find(doc Document, iface string) []Block {
	var blocks []Block
	prevEnd := 0
	for i := 0; i < len(doc); i++ {
		if !isMarkerFor(doc[i], iface) {
			continue
		}

		end := e.bodyEnd(doc, i)
		start := i
		// The blank line this tool writes before a stanza goes with it, but
		// only when the stanza runs to the end of the file. Elsewhere it is
		// still needed to separate the neighbouring lines.
		if end == len(doc) && i > prevEnd && isBlank(doc[i-1]) {
			start = i - 1
		}

		blocks = append(blocks, Block{Start: start, Marker: i, End: end})
		prevEnd = end
		i = end - 1
	}
	return blocks
}

// bodyEnd returns the exclusive end index of the stanza whose marker is at
// index marker.
func (e *Editor) bodyEnd(doc Document, marker int) int {
	if e.opts.Body == BodyFixed {
		end := marker + 1 + e.opts.BodyLines
		if end > len(doc) {
			end = len(doc)
		}
		return end
	}

	j := marker + 1
	for j < len(doc) {
		if isSectionStart(doc[j]) {
			return j
		}
		if isBlank(doc[j]) {
			return j + 1
		}
		j++
	}
	return j
}

func isSectionStart(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, kw := range sectionKeywords {
		if fields[0] == kw {
			return true
		}
	}
	return false
}
