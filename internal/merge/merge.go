// Package merge inserts memory records into the target document: duplicate
// and overlap detection against existing content, then section-aware
// insertion that leaves hand-written text untouched.
package merge

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/memoir-dev/memoir/internal/document"
	"github.com/memoir-dev/memoir/internal/model"
)

// similarityThreshold is the Jaccard overlap above which two titles are
// considered the same rule worded differently.
const similarityThreshold = 0.7

// minSharedKeywords is the smallest keyword intersection reported as a
// section overlap.
const minSharedKeywords = 2

const previewLimit = 200

// MatchKind classifies a candidate against existing document content.
type MatchKind string

const (
	MatchExact   MatchKind = "exact"
	MatchSimilar MatchKind = "similar"
	MatchNew     MatchKind = "new"
)

// Duplicate is the result of duplicate detection: the kind of match and,
// for exact/similar, the existing title that matched.
type Duplicate struct {
	Kind  MatchKind
	Title string
}

// Overlap reports a section whose content shares keywords with a candidate.
type Overlap struct {
	Section  string
	Keywords []string
	Preview  string
}

// titleRe matches bolded bullet titles: "- **Title**" or "* **Title**".
var titleRe = regexp.MustCompile(`(?m)^\s*[-*]\s*\*\*([^*]+)\*\*`)

// ExtractTitles returns every bolded bullet title in the document, in order.
func ExtractTitles(text string) []string {
	var titles []string
	for _, m := range titleRe.FindAllStringSubmatch(text, -1) {
		titles = append(titles, strings.TrimSpace(m[1]))
	}
	return titles
}

// DuplicateStatus checks a record's title against every bolded bullet title
// in the document. An identical string is exact; a keyword Jaccard similarity
// above the threshold is similar, with the first title over the threshold
// winning in document order.
func DuplicateStatus(m *model.Memory, doc *document.Document) Duplicate {
	existing := ExtractTitles(doc.String())
	title := strings.TrimSpace(m.Content.Title)

	for _, t := range existing {
		if t == title {
			return Duplicate{Kind: MatchExact, Title: t}
		}
	}

	titleKeywords := Keywords(title)
	if len(titleKeywords) == 0 {
		return Duplicate{Kind: MatchNew}
	}
	for _, t := range existing {
		tk := Keywords(t)
		if len(tk) == 0 {
			continue
		}
		if jaccard(titleKeywords, tk) > similarityThreshold {
			return Duplicate{Kind: MatchSimilar, Title: t}
		}
	}
	return Duplicate{Kind: MatchNew}
}

// Overlaps reports sections whose content shares at least two keywords with
// the record's title and description. At most five shared keywords are
// listed per section, with a truncated content preview.
func Overlaps(m *model.Memory, doc *document.Document) []Overlap {
	memKeywords := Keywords(m.Content.Title + " " + m.Content.Description)
	if len(memKeywords) == 0 {
		return nil
	}

	var overlaps []Overlap
	for _, sec := range doc.Sections() {
		shared := intersect(memKeywords, Keywords(sec.Content))
		if len(shared) < minSharedKeywords {
			continue
		}
		if len(shared) > 5 {
			shared = shared[:5]
		}
		preview := sec.Content
		if len(preview) > previewLimit {
			preview = preview[:previewLimit] + "..."
		}
		overlaps = append(overlaps, Overlap{
			Section:  sec.Title,
			Keywords: shared,
			Preview:  preview,
		})
	}
	return overlaps
}

// sectionForType maps memory types to their document sections.
var sectionForType = map[model.MemoryType]string{
	model.TypePreference: "Preferences",
	model.TypePattern:    "Patterns & Conventions",
	model.TypeWorkflow:   "Workflows",
	model.TypeProject:    "Project-Specific",
	model.TypeCorrection: "Learned Corrections",
	model.TypeNegative:   "Avoid",
}

// canonicalOrder is the intended category order when sections are created.
var canonicalOrder = []string{
	"Preferences",
	"Patterns & Conventions",
	"Workflows",
	"Project-Specific",
	"Learned Corrections",
	"Avoid",
}

// SectionFor returns the document section a memory type belongs in.
func SectionFor(t model.MemoryType) string {
	if s, ok := sectionForType[t]; ok {
		return s
	}
	return "General"
}

// FormatEntry renders a record as a plain markdown bullet with no machine
// markers, so promoted entries blend with hand-authored content and stay
// freely editable.
func FormatEntry(m *model.Memory) string {
	lines := []string{
		fmt.Sprintf("- **%s**", m.Content.Title),
		fmt.Sprintf("  - %s", m.Content.Description),
	}
	if m.Content.Action != "" {
		lines = append(lines, fmt.Sprintf("  - %s", m.Content.Action))
	}
	examples := m.Content.Examples
	if len(examples) > 3 {
		examples = examples[:3]
	}
	for _, ex := range examples {
		lines = append(lines, fmt.Sprintf("  - Example: `%s`", ex))
	}
	return strings.Join(lines, "\n")
}

// Insert places a record's formatted entry in its type's section, creating
// the section when absent. A new canonical section is inserted after the
// nearest preceding canonical section already present; with no present
// predecessor (or a non-canonical section) it is appended at document end.
func Insert(m *model.Memory, doc *document.Document) {
	section := SectionFor(m.Type)
	entry := FormatEntry(m)

	if doc.HasSection(section) {
		doc.AppendToSection(section, entry)
		return
	}

	for i := indexOf(canonicalOrder, section) - 1; i >= 0; i-- {
		if doc.HasSection(canonicalOrder[i]) {
			doc.InsertSectionAfter(canonicalOrder[i], section, entry)
			return
		}
	}
	doc.AppendSection(section, entry)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return 0
}
