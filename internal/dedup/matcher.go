package dedup

import "github.com/groundwork-re/groundwork/internal/ledger"

// DefaultThreshold is the similar-name cutoff used when callers pass none.
const DefaultThreshold = 0.75

// Matcher compares accounts between two entities. Threshold and synonym
// rules are injected so they can be tuned and tested independently.
type Matcher struct {
	normalizer *Normalizer
	threshold  float64
}

func NewMatcher(normalizer *Normalizer, threshold float64) *Matcher {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{normalizer: normalizer, threshold: threshold}
}

// Match compares one account pair. exact_match (number and normalized name)
// takes precedence over exact_number, which takes precedence over
// similar_name.
func (m *Matcher) Match(a, b ledger.Account) (Candidate, bool) {
	nameA := m.normalizer.Normalize(a.Name)
	nameB := m.normalizer.Normalize(b.Name)

	candidate := Candidate{
		EntityAID:  a.EntityID,
		EntityBID:  b.EntityID,
		AccountAID: a.ID,
		AccountBID: b.ID,
		NumberA:    a.Number,
		NumberB:    b.Number,
		NameA:      a.Name,
		NameB:      b.Name,
	}

	if a.Number != "" && a.Number == b.Number {
		if nameA == nameB {
			candidate.MatchType = MatchExact
		} else {
			candidate.MatchType = MatchExactNumber
		}
		candidate.Confidence = 1.0
		return candidate, true
	}

	score := nameSimilarity(nameA, nameB)
	if score >= m.threshold {
		candidate.MatchType = MatchSimilarName
		candidate.Confidence = score
		return candidate, true
	}
	return Candidate{}, false
}

// Similarity exposes the normalized-name score for diagnostics.
func (m *Matcher) Similarity(nameA, nameB string) float64 {
	return nameSimilarity(m.normalizer.Normalize(nameA), m.normalizer.Normalize(nameB))
}
