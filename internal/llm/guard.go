package llm

import (
	"regexp"
	"strings"
)

// IncludesToken reports whether token appears in haystack as a whole word, ignoring case.
// Matching is lexical only: "5A992" does not match "5A992a", and punctuation variants are not folded.
func IncludesToken(haystack, token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(token) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(haystack)
}

// GuardTradeFields blanks ECCN, HTS and COO values that are not evidenced in the bundled source text.
// It returns the guarded fields and the names of the fields it rejected.
func GuardTradeFields(sourceText string, f PartFields) (PartFields, []string) {
	var rejected []string
	check := func(name string, v *string) {
		if *v == "" {
			return
		}
		if !IncludesToken(sourceText, *v) {
			*v = ""
			rejected = append(rejected, name)
		}
	}
	check("eccn", &f.ECCN)
	check("hts", &f.HTS)
	check("coo", &f.COO)
	return f, rejected
}
