package merge

import (
	"reflect"
	"strings"
	"testing"

	"github.com/memoir-dev/memoir/internal/document"
	"github.com/memoir-dev/memoir/internal/model"
)

func mem(t model.MemoryType, title, description string) *model.Memory {
	return model.NewMemory(t, model.Content{Title: title, Description: description},
		model.Scope{Type: model.ScopeGlobal}, 0.8)
}

func TestKeywords(t *testing.T) {
	got := Keywords("Always use the gofmt tool when formatting Go code")
	for _, w := range []string{"gofmt", "tool", "formatting", "code"} {
		if !got[w] {
			t.Errorf("expected keyword %q in %v", w, got)
		}
	}
	for _, w := range []string{"always", "use", "the", "when", "go"} {
		if got[w] {
			t.Errorf("keyword %q should be excluded (stop word or too short)", w)
		}
	}
}

func TestExtractTitles(t *testing.T) {
	text := "## Sec\n\n- **First rule**\n  - detail\n* **Second rule**\n- plain bullet without bold\n"
	got := ExtractTitles(text)
	want := []string{"First rule", "Second rule"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDuplicateStatusExact(t *testing.T) {
	doc := document.New("## Preferences\n\n- **Prefer small interfaces**\n  - detail\n")
	d := DuplicateStatus(mem(model.TypePreference, "Prefer small interfaces", ""), doc)
	if d.Kind != MatchExact || d.Title != "Prefer small interfaces" {
		t.Errorf("expected exact match, got %+v", d)
	}
}

func TestDuplicateStatusSimilar(t *testing.T) {
	doc := document.New("## Preferences\n\n- **Prefer small focused interfaces everywhere**\n")
	d := DuplicateStatus(mem(model.TypePreference, "Small focused interfaces everywhere", ""), doc)
	if d.Kind != MatchSimilar {
		t.Errorf("expected similar match, got %+v", d)
	}
	if d.Title != "Prefer small focused interfaces everywhere" {
		t.Errorf("similar match should report the existing title, got %q", d.Title)
	}
}

func TestDuplicateStatusFirstMatchWins(t *testing.T) {
	doc := document.New("- **Small focused interface design everywhere**\n- **Focused small interface design everywhere**\n")
	d := DuplicateStatus(mem(model.TypePattern, "Interface design small focused everywhere", ""), doc)
	if d.Kind != MatchSimilar {
		t.Fatalf("expected similar, got %+v", d)
	}
	if d.Title != "Small focused interface design everywhere" {
		t.Errorf("first title over the threshold should win, got %q", d.Title)
	}
}

func TestDuplicateStatusNew(t *testing.T) {
	doc := document.New("## Preferences\n\n- **Prefer small interfaces**\n")
	d := DuplicateStatus(mem(model.TypeWorkflow, "Run integration suite nightly", ""), doc)
	if d.Kind != MatchNew {
		t.Errorf("expected new, got %+v", d)
	}
}

func TestDuplicateStatusEmptyKeywords(t *testing.T) {
	// A title of nothing but stop words never reads as similar.
	doc := document.New("- **Use the**\n")
	d := DuplicateStatus(mem(model.TypePattern, "The and for", ""), doc)
	if d.Kind != MatchNew {
		t.Errorf("stop-word-only titles must not match, got %+v", d)
	}
}

func TestOverlaps(t *testing.T) {
	doc := document.New("## Testing\n\nIntegration fixtures live under testdata and use golden files.\n\n## Unrelated\n\nNothing shared here at all.\n")
	m := mem(model.TypePattern, "Golden files for integration output", "Keep golden fixtures under testdata")

	got := Overlaps(m, doc)
	if len(got) != 1 {
		t.Fatalf("expected 1 overlap, got %d: %+v", len(got), got)
	}
	o := got[0]
	if o.Section != "Testing" {
		t.Errorf("expected Testing section, got %q", o.Section)
	}
	for _, kw := range []string{"golden", "testdata"} {
		found := false
		for _, k := range o.Keywords {
			if k == kw {
				found = true
			}
		}
		if !found {
			t.Errorf("expected shared keyword %q in %v", kw, o.Keywords)
		}
	}
	if !sortedStrings(o.Keywords) {
		t.Errorf("shared keywords should be sorted, got %v", o.Keywords)
	}
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return false
		}
	}
	return true
}

func TestOverlapPreviewTruncated(t *testing.T) {
	long := strings.Repeat("golden testdata fixture content ", 20)
	doc := document.New("## Testing\n\n" + long + "\n")
	m := mem(model.TypePattern, "Golden testdata fixtures", "golden testdata")

	got := Overlaps(m, doc)
	if len(got) != 1 {
		t.Fatalf("expected 1 overlap, got %d", len(got))
	}
	if len(got[0].Preview) != 203 || !strings.HasSuffix(got[0].Preview, "...") {
		t.Errorf("expected 200-char preview with ellipsis, got %d chars", len(got[0].Preview))
	}
}

func TestSectionFor(t *testing.T) {
	cases := map[model.MemoryType]string{
		model.TypePreference: "Preferences",
		model.TypePattern:    "Patterns & Conventions",
		model.TypeWorkflow:   "Workflows",
		model.TypeProject:    "Project-Specific",
		model.TypeCorrection: "Learned Corrections",
		model.TypeNegative:   "Avoid",
		"mystery":            "General",
	}
	for typ, want := range cases {
		if got := SectionFor(typ); got != want {
			t.Errorf("%s: expected %q, got %q", typ, want, got)
		}
	}
}

func TestFormatEntry(t *testing.T) {
	m := mem(model.TypePattern, "Title here", "Description here")
	m.Content.Action = "Do the thing"
	m.Content.Examples = []string{"one", "two", "three", "four"}

	got := FormatEntry(m)
	want := "- **Title here**\n" +
		"  - Description here\n" +
		"  - Do the thing\n" +
		"  - Example: `one`\n" +
		"  - Example: `two`\n" +
		"  - Example: `three`"
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
	if strings.Contains(got, "four") {
		t.Error("examples are capped at three")
	}
}

func TestInsertIntoExistingSection(t *testing.T) {
	doc := document.New("# CLAUDE.md\n\n## Preferences\n\n- **Old**\n  - old detail\n\n## Workflows\n\n- **W**\n  - w detail\n")
	Insert(mem(model.TypePreference, "New pref", "pref detail"), doc)

	out := doc.String()
	if strings.Index(out, "- **New pref**") > strings.Index(out, "## Workflows") {
		t.Errorf("entry should land in Preferences:\n%s", out)
	}
}

func TestInsertCreatesSectionAfterPredecessor(t *testing.T) {
	doc := document.New("# CLAUDE.md\n\n## Preferences\n\n- **P**\n  - d\n\n## Learned Corrections\n\n- **C**\n  - d\n")
	Insert(mem(model.TypeWorkflow, "Release checklist", "run it"), doc)

	out := doc.String()
	pref := strings.Index(out, "## Preferences")
	wf := strings.Index(out, "## Workflows")
	corr := strings.Index(out, "## Learned Corrections")
	if !(pref < wf && wf < corr) {
		t.Errorf("Workflows should follow its nearest present predecessor:\n%s", out)
	}
}

func TestInsertNoPredecessorAppendsAtEnd(t *testing.T) {
	// Preferences heads the canonical order; with only a later section
	// present it has no predecessor and goes to the end of the document.
	doc := document.New("# CLAUDE.md\n\n## Patterns & Conventions\n\n- **Existing pattern**\n  - detail\n")
	Insert(mem(model.TypePreference, "Tabs over spaces", "always tabs"), doc)

	out := doc.String()
	pat := strings.Index(out, "## Patterns & Conventions")
	pref := strings.Index(out, "## Preferences")
	if pref < pat {
		t.Errorf("Preferences should be appended after existing content:\n%s", out)
	}
	if !strings.Contains(out, "- **Tabs over spaces**") {
		t.Errorf("entry missing:\n%s", out)
	}
	if !strings.Contains(out, "- **Existing pattern**\n  - detail") {
		t.Error("existing content must be untouched")
	}
}
