// Package document models the target knowledge document: an ordered list of
// markdown-style sections plus manual, human-owned content.
//
// The document is hand-edited between runs, so the model never re-renders it.
// Parsing produces read-only views over the raw text, and every mutation is a
// line-wise splice that leaves all other bytes untouched. An unparsed,
// untouched document always serializes back byte-identical to its input.
package document

import (
	"regexp"
	"strings"
)

// Section is one heading-delimited span of the document. Content runs up to
// the next heading of the same or higher level.
type Section struct {
	Title   string
	Level   int
	Content string
}

var (
	headingRe  = regexp.MustCompile(`^(#{2,3})\s+(.+)$`)
	boundaryRe = regexp.MustCompile(`^(#{2,})\s+`)
	// Legacy auto-managed regions, recognized for backward compatibility only.
	managedRe = regexp.MustCompile(`(?s)<!--\s*memory-sync:\s*start\s*-->.*?<!--\s*memory-sync:\s*end\s*-->`)
)

// Document wraps the raw text of a target document.
type Document struct {
	raw string
}

// New wraps text without altering it.
func New(text string) *Document {
	return &Document{raw: text}
}

// String returns the document text. For an untouched document this is
// byte-identical to the input of New.
func (d *Document) String() string { return d.raw }

// ManagedRegions returns the interiors of any legacy managed marker pairs.
func (d *Document) ManagedRegions() []string {
	var regions []string
	for _, m := range managedRe.FindAllString(d.raw, -1) {
		interior := m
		if i := strings.Index(interior, "-->"); i >= 0 {
			interior = interior[i+len("-->"):]
		}
		if i := strings.LastIndex(interior, "<!--"); i >= 0 {
			interior = interior[:i]
		}
		regions = append(regions, interior)
	}
	return regions
}

// Manual returns the document with managed regions removed: the content that
// belongs to humans.
func (d *Document) Manual() string {
	return managedRe.ReplaceAllString(d.raw, "")
}

// Sections parses the manual content into ordered sections. A section's
// content spans until the next heading of level less than or equal to its
// own, so a level-2 section includes the text of its level-3 subsections.
func (d *Document) Sections() []Section {
	lines := strings.Split(d.Manual(), "\n")

	type heading struct {
		line  int
		level int
		title string
	}
	var headings []heading
	for i, line := range lines {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			headings = append(headings, heading{line: i, level: len(m[1]), title: strings.TrimSpace(m[2])})
		}
	}

	sections := make([]Section, 0, len(headings))
	for i, h := range headings {
		end := len(lines)
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				end = next.line
				break
			}
		}
		sections = append(sections, Section{
			Title:   h.title,
			Level:   h.level,
			Content: strings.TrimSpace(strings.Join(lines[h.line+1:end], "\n")),
		})
	}
	return sections
}

// HasSection reports whether a level-2 section with the given title exists.
func (d *Document) HasSection(title string) bool {
	re := regexp.MustCompile(`(?m)^##\s+` + regexp.QuoteMeta(title) + `\s*$`)
	return re.MatchString(d.raw)
}

// AppendToSection inserts entry at the end of the named level-2 section's
// body, immediately before the next heading of level 2 or higher, preserving
// every other line unchanged.
func (d *Document) AppendToSection(title, entry string) {
	target := regexp.MustCompile(`^##\s+` + regexp.QuoteMeta(title) + `\s*$`)

	lines := strings.Split(d.raw, "\n")
	result := make([]string, 0, len(lines)+2)
	inSection := false
	inserted := false

	for _, line := range lines {
		if !inserted && !inSection && target.MatchString(line) {
			inSection = true
			result = append(result, line)
			continue
		}
		if inSection && !inserted {
			if m := boundaryRe.FindStringSubmatch(line); m != nil && len(m[1]) <= 2 {
				result = append(result, entry, "")
				inserted = true
				inSection = false
			}
		}
		result = append(result, line)
	}
	if inSection && !inserted {
		result = append(result, "", entry)
	}
	d.raw = strings.Join(result, "\n")
}

// InsertSectionAfter creates a new level-2 section with the given entry
// directly after the named existing section.
func (d *Document) InsertSectionAfter(after, title, entry string) {
	target := regexp.MustCompile(`^(#{2,})\s+` + regexp.QuoteMeta(after) + `\s*$`)
	text := "\n## " + title + "\n\n" + entry

	lines := strings.Split(d.raw, "\n")
	result := make([]string, 0, len(lines)+2)
	inSection := false
	level := 2
	inserted := false

	for _, line := range lines {
		if !inserted && !inSection {
			if m := target.FindStringSubmatch(line); m != nil {
				inSection = true
				level = len(m[1])
				result = append(result, line)
				continue
			}
		}
		if inSection && !inserted {
			if m := boundaryRe.FindStringSubmatch(line); m != nil && len(m[1]) <= level {
				result = append(result, text, "")
				inserted = true
				inSection = false
			}
		}
		result = append(result, line)
	}
	if inSection && !inserted {
		result = append(result, text)
	}
	d.raw = strings.Join(result, "\n")
}

// AppendSection adds a new level-2 section with the given entry at the end of
// the document.
func (d *Document) AppendSection(title, entry string) {
	d.raw = strings.TrimRight(d.raw, " \t\n") + "\n\n## " + title + "\n\n" + entry + "\n"
}
