package dedup

import (
	"sort"
	"strings"
)

// editDistance computes the Levenshtein distance with a two-row table.
func editDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// similarity returns 1 - dist/maxLen over normalized strings. Strings whose
// lengths differ by more than half the longer length cannot clear any useful
// threshold, so that case short-circuits to 0 before running the table.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longer := la
	if lb > longer {
		longer = lb
	}
	if longer == 0 {
		return 1
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	if diff*2 > longer {
		return 0
	}
	return 1 - float64(editDistance(a, b))/float64(longer)
}

// sortTokens reorders the words of a normalized name so token order cannot
// mask a match: "trade ap" and "ap trade" name the same account.
func sortTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// nameSimilarity scores two normalized names, taking the better of the raw
// and token-sorted comparisons.
func nameSimilarity(a, b string) float64 {
	score := similarity(a, b)
	if score == 1 {
		return score
	}
	if sorted := similarity(sortTokens(a), sortTokens(b)); sorted > score {
		score = sorted
	}
	return score
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
