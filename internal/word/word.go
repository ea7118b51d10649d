// Package word holds the vocabulary domain types shared by every store and component.
package word

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the YYYY-MM-DD form used for presentation dates.
const DateLayout = "2006-01-02"

// Source records where a word entry came from.
type Source string

const (
	SourceBundled   Source = "asset" // shipped default vocabulary
	SourceGenerated Source = "ai"    // produced by the generation collaborator
	SourceUserAdded Source = "user"  // entered by the user
)

// ParseSource maps a stored source value onto a Source.
// Empty and unrecognised values become SourceBundled, so missing data is never
// treated as deletable.
func ParseSource(s string) Source {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ai", "generated":
		return SourceGenerated
	case "user", "user_added", "useradded":
		return SourceUserAdded
	default:
		return SourceBundled
	}
}

// UnmarshalJSON normalizes the stored value at read time.
func (s *Source) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = SourceBundled
		return nil
	}
	*s = ParseSource(*raw)
	return nil
}

// Entry is a single vocabulary item. Entries are values: every change is a copy.
type Entry struct {
	// ID is an opaque handle for list diffing, assigned once at creation
	ID string `json:"id,omitempty"`

	// Text is the word, idiom, or proverb itself
	Text string `json:"word"`

	// Meaning is the explanation shown on the back of the card
	Meaning string `json:"meaning"`

	// Category is the display name of the owning category
	Category string `json:"category"`

	// Date is the YYYY-MM-DD day the entry was presented (empty if never)
	Date string `json:"date,omitempty"`

	Source Source `json:"source"`
}

// Identity is the deduplication key of an entry.
type Identity struct {
	Text    string
	Meaning string
}

// Identity returns the (text, meaning) pair that identifies the entry.
func (e Entry) Identity() Identity {
	return Identity{Text: e.Text, Meaning: e.Meaning}
}

// LedgerKey returns the exposure-ledger key "text|meaning|category".
func (e Entry) LedgerKey() string {
	return LedgerKey(e.Text, e.Meaning, e.Category)
}

// LedgerKey builds the exposure-ledger key from its parts.
func LedgerKey(text, meaning, category string) string {
	return text + "|" + meaning + "|" + category
}

// IsBundled reports whether the entry is shipped default data.
func (e Entry) IsBundled() bool {
	return e.Source == SourceBundled || e.Source == ""
}

// Normalized returns a copy with an empty source replaced by SourceBundled.
func (e Entry) Normalized() Entry {
	if e.Source == "" {
		e.Source = SourceBundled
	}
	return e
}

// Pair is a (word, meaning) suggestion from the generation collaborator.
type Pair struct {
	Text    string `json:"word"`
	Meaning string `json:"meaning"`
}

// Record is the persisted word list of one category.
type Record struct {
	Category string  `json:"category"`
	Words    []Entry `json:"words"`
}

// Definition describes a category.
type Definition struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	BuiltIn     bool   `json:"built_in"`
}

// BuiltIns returns the four categories present at first run, in display order.
func BuiltIns() []Definition {
	return []Definition{
		{Key: "idiom", DisplayName: "사자성어", BuiltIn: true},
		{Key: "proverb", DisplayName: "속담", BuiltIn: true},
		{Key: "word", DisplayName: "단어", BuiltIn: true},
		{Key: "english", DisplayName: "영어", BuiltIn: true},
	}
}

// FormatDate formats t as a local-calendar YYYY-MM-DD string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string in the local time zone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}
