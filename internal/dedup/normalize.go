package dedup

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SynonymRule rewrites a canonicalised phrase to its short form. Rules are
// configuration data so matching behaviour can be tuned without touching the
// algorithm.
type SynonymRule struct {
	Phrase      string
	Replacement string
}

// DefaultSynonyms covers the abbreviations that show up across real-estate
// charts of accounts. Longer phrases come first so "accounts payable" wins
// over the bare plural forms.
var DefaultSynonyms = []SynonymRule{
	{Phrase: "accounts receivable", Replacement: "ar"},
	{Phrase: "accounts payable", Replacement: "ap"},
	{Phrase: "receivables", Replacement: "ar"},
	{Phrase: "payables", Replacement: "ap"},
	{Phrase: "construction in progress", Replacement: "cip"},
	{Phrase: "work in progress", Replacement: "wip"},
	{Phrase: "fixed assets", Replacement: "fa"},
	{Phrase: "capital expenditures", Replacement: "capex"},
	{Phrase: "tenant improvements", Replacement: "ti"},
	{Phrase: "common area maintenance", Replacement: "cam"},
}

var leadingArticles = []string{"the ", "a ", "an "}

var trailingNoise = []string{" account", " acct"}

// Normalizer canonicalises account names before comparison.
type Normalizer struct {
	synonyms []SynonymRule
	fold     transform.Transformer
}

// NewNormalizer builds a normalizer with the given synonym table; nil uses
// DefaultSynonyms.
func NewNormalizer(synonyms []SynonymRule) *Normalizer {
	if synonyms == nil {
		synonyms = DefaultSynonyms
	}
	return &Normalizer{
		synonyms: synonyms,
		// Decompose, drop combining marks, recompose: "Résidence" -> "Residence".
		fold: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

// Normalize lowercases, strips diacritics and punctuation, collapses
// whitespace, drops leading articles and trailing "account"/"acct", and
// applies the synonym table.
func (n *Normalizer) Normalize(name string) string {
	folded, _, err := transform.String(n.fold, name)
	if err != nil {
		folded = name
	}
	s := strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	s = strings.TrimSpace(b.String())

	for _, article := range leadingArticles {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}
	for _, suffix := range trailingNoise {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break
		}
	}
	for _, rule := range n.synonyms {
		s = strings.ReplaceAll(s, rule.Phrase, rule.Replacement)
	}
	return strings.Join(strings.Fields(s), " ")
}
