// Package knowledge answers support questions from a bilingual knowledge base
// and an optional remote answer service, and gates every answer behind a
// confidence threshold before it reaches the user.
package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed kb.yaml
var defaultKB []byte

// Entry is one question/answer pair, keyed by language code.
type Entry struct {
	Question map[string]string `yaml:"question"`
	Answer   map[string]string `yaml:"answer"`
}

// Shortcut ids map support menu buttons onto KB entries.
const (
	ShortcutPayment   = "support_payment"
	ShortcutStatus    = "support_status"
	ShortcutDocs      = "support_docs"
	ShortcutRepayment = "support_repayment_change"
)

var shortcutIndex = map[string]int{
	ShortcutPayment:   0,
	ShortcutStatus:    1,
	ShortcutDocs:      2,
	ShortcutRepayment: 3,
}

// Base is the support knowledge base. Safe for concurrent use; Reload swaps
// the entry set atomically.
type Base struct {
	mu      sync.RWMutex
	entries []Entry
}

type kbFile struct {
	Entries []Entry `yaml:"entries"`
}

// DefaultBase loads the embedded knowledge base.
func DefaultBase() *Base {
	b := &Base{}
	if err := b.load(defaultKB); err != nil {
		// The embedded file is validated by tests; a parse failure here
		// means a broken build, not a runtime condition.
		panic(fmt.Sprintf("embedded knowledge base: %v", err))
	}
	return b
}

// LoadFile replaces the entries with the contents of a YAML file.
func (b *Base) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read knowledge base: %w", err)
	}
	return b.load(data)
}

func (b *Base) load(data []byte) error {
	var file kbFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse knowledge base: %w", err)
	}
	if len(file.Entries) == 0 {
		return fmt.Errorf("knowledge base has no entries")
	}
	b.mu.Lock()
	b.entries = file.Entries
	b.mu.Unlock()
	return nil
}

// Len returns the number of entries.
func (b *Base) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// BestMatch scores the question against every entry in the given language and
// returns the best answer with its token-overlap score. A knowledge base with
// no lexical overlap yields ("", 0).
func (b *Base) BestMatch(question, lang string) (string, float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	normalized := strings.ToLower(strings.TrimSpace(question))
	bestScore := 0.0
	bestAnswer := ""
	for _, entry := range b.entries {
		prompt := localized(entry.Question, lang)
		score := Similarity(normalized, strings.ToLower(prompt))
		if score > bestScore {
			bestScore = score
			bestAnswer = localized(entry.Answer, lang)
		}
	}
	return bestAnswer, bestScore
}

// Compose renders the whole base as Q/A context for the remote answer service.
func (b *Base) Compose(lang string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sections := make([]string, 0, len(b.entries))
	for _, entry := range b.entries {
		sections = append(sections, fmt.Sprintf("Q: %s\nA: %s", localized(entry.Question, lang), localized(entry.Answer, lang)))
	}
	return strings.Join(sections, "\n\n")
}

// ShortcutAnswer resolves a support menu button id to its canned Q/A pair.
func (b *Base) ShortcutAnswer(shortcutID, lang string) (question, answer string, ok bool) {
	idx, found := shortcutIndex[shortcutID]
	if !found {
		return "", "", false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if idx >= len(b.entries) {
		return "", "", false
	}
	entry := b.entries[idx]
	return localized(entry.Question, lang), localized(entry.Answer, lang), true
}

func localized(m map[string]string, lang string) string {
	if v, ok := m[lang]; ok && v != "" {
		return v
	}
	return m["en"]
}

// Similarity is the token-overlap (Jaccard) score between two strings.
// It is the offline confidence source when no external score is available.
func Similarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range strings.Fields(s) {
		out[tok] = struct{}{}
	}
	return out
}
