// Package token turns free text into lookup terms and computes
// association-set signatures for grouping.
package token

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTermLength is the shortest term worth matching against the
// association index. Shorter words are almost always stopwords.
const MinTermLength = 4

// Extract splits text into lowercase terms of length >= MinTermLength,
// de-duplicated in first-appearance order. Punctuation and digits
// separate terms.
func Extract(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]bool, len(fields))
	var terms []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTermLength || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// Signature returns a canonical key for an association set: the sorted
// tokens, each length-prefixed so no token content can collide with
// the framing. Two memories share a signature only when their
// association sets are identical.
func Signature(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	var b strings.Builder
	for _, tok := range sorted {
		b.WriteString(strconv.Itoa(len(tok)))
		b.WriteByte(':')
		b.WriteString(tok)
	}
	return b.String()
}

// SplitSignature is the inverse of Signature. Malformed input yields
// the tokens decoded up to the corruption point.
func SplitSignature(sig string) []string {
	var tokens []string
	for len(sig) > 0 {
		sep := strings.IndexByte(sig, ':')
		if sep < 0 {
			break
		}
		n, err := strconv.Atoi(sig[:sep])
		if err != nil || n < 0 || sep+1+n > len(sig) {
			break
		}
		tokens = append(tokens, sig[sep+1:sep+1+n])
		sig = sig[sep+1+n:]
	}
	return tokens
}
