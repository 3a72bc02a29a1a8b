package interco

import "regexp"

// Pattern pairs a label with the expression that recognises it in an entry
// description. The table is ordered; the first hit wins.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// AutoDetectPatterns covers the wording that shows up on intercompany entries
// in practice. Matches produce suggestions only.
var AutoDetectPatterns = []Pattern{
	{Name: "intercompany", Re: regexp.MustCompile(`(?i)\binter[- ]?company\b`)},
	{Name: "transfer", Re: regexp.MustCompile(`(?i)\btransfer(s|red)?\b`)},
	{Name: "management_fee", Re: regexp.MustCompile(`(?i)\b(management|mgmt)\s+fees?\b`)},
	{Name: "allocation", Re: regexp.MustCompile(`(?i)\balloc(ation|ated)\b`)},
	{Name: "due_to_from", Re: regexp.MustCompile(`(?i)\bdue\s+(to|from)\b`)},
	{Name: "loan_to_from", Re: regexp.MustCompile(`(?i)\bloan\s+(to|from)\b`)},
	{Name: "receivable_payable", Re: regexp.MustCompile(`(?i)\b(receivable|payable)\s+(to|from)\b`)},
}

func matchPattern(description string) (string, bool) {
	for _, p := range AutoDetectPatterns {
		if p.Re.MatchString(description) {
			return p.Name, true
		}
	}
	return "", false
}
