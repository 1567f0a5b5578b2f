// Package importer extracts draft memory records from the manual content of
// a target document: the reverse path of promotion.
package importer

import (
	"regexp"
	"strings"
	"time"

	"github.com/memoir-dev/memoir/internal/document"
	"github.com/memoir-dev/memoir/internal/model"
)

// minRuleLength filters out bullets too short to be a usable rule.
const minRuleLength = 10

// bulletRe matches top-level "- " or "* " bullets. Nested bullets are the
// bodies of existing entries, not rules of their own.
var bulletRe = regexp.MustCompile(`(?m)^[-*]\s+(.+)$`)

var triggerWordRe = regexp.MustCompile(`\b\w{4,}\b`)

// typeRules classify a rule by its first matching keyword family. Order
// matters: "never use" is a preference, bare "never" is a negative.
var typeRules = []struct {
	keywords []string
	memType  model.MemoryType
}{
	{[]string{"prefer", "always use", "never use"}, model.TypePreference},
	{[]string{"pattern", "convention", "style"}, model.TypePattern},
	{[]string{"before", "after", "workflow", "process"}, model.TypeWorkflow},
	{[]string{"never", "avoid", "don't"}, model.TypeNegative},
}

// ExtractRules returns the top-level bullet lines of the document's manual
// content that are long enough to be rules.
func ExtractRules(doc *document.Document) []string {
	var rules []string
	for _, m := range bulletRe.FindAllStringSubmatch(doc.Manual(), -1) {
		rule := strings.TrimSpace(m[1])
		if len(rule) < minRuleLength {
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// Classify assigns a memory type by the first keyword family that matches;
// rules matching none default to project knowledge.
func Classify(rule string) model.MemoryType {
	lower := strings.ToLower(rule)
	for _, r := range typeRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.memType
			}
		}
	}
	return model.TypeProject
}

// TriggerKeywords derives trigger keywords: the first five distinct words of
// length four or more, in order of appearance.
func TriggerKeywords(rule string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, w := range triggerWordRe.FindAllString(strings.ToLower(rule), -1) {
		if seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}

// Records classifies every extracted rule into a draft record. Drafts start
// at the import confidence with one evidence entry citing the source
// document.
func Records(doc *document.Document, sourcePath string, scope model.Scope, confidence float64) []*model.Memory {
	var records []*model.Memory
	for _, rule := range ExtractRules(doc) {
		m := model.NewMemory(Classify(rule), model.Content{
			Title:       model.Truncate(rule, 60),
			Description: rule,
			Action:      "Follow this rule: " + clip(rule, 100),
		}, scope, confidence)
		m.Triggers.Keywords = TriggerKeywords(rule)
		m.Evidence = append(m.Evidence, model.Evidence{
			Timestamp:   time.Now().UTC(),
			Description: "Imported from " + sourcePath,
			Source:      "document-import",
		})
		records = append(records, m)
	}
	return records
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
