// Package cite generates the citation keys that tie drafted prose to the
// evidence corpus and the final reference list.
package cite

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mlindgren/litsurvey/internal/model"
)

// MarkerPattern matches citation-key markers embedded in drafted prose:
// [Smith2021], [Smith2021a], [AnonND]. Exported for the reconciler.
var MarkerPattern = regexp.MustCompile(`\[([A-Z][A-Za-z]*(?:\d{4}|ND)[a-z]*)\]`)

// BaseKey derives the undisambiguated citation key from author/year
// metadata: first author's surname reduced to letters, then the year
// ("ND" when unknown).
func BaseKey(authors []model.Author, year int) string {
	surname := "Anon"
	if len(authors) > 0 {
		if s := sanitizeSurname(authors[0].Last); s != "" {
			surname = s
		}
	}

	yearPart := "ND"
	if year > 0 {
		yearPart = strconv.Itoa(year)
	}
	return surname + yearPart
}

func sanitizeSurname(last string) string {
	var b strings.Builder
	for _, r := range last {
		if unicode.IsLetter(r) && r < 128 {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Allocator hands out run-unique citation keys. Collisions are resolved by
// encounter order: the first paper for a base holds the bare key until a
// second paper collides, at which point the first is renamed to base+"a" and
// the second becomes base+"b"; later collisions continue "c", "d" and so on.
// Renames are surfaced to the caller so the corpus entry can be re-keyed;
// this only ever happens while the corpus is still being built.
type Allocator struct {
	counts map[string]int
}

// NewAllocator returns an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{counts: make(map[string]int)}
}

// Assign returns the citation key for the paper and, on the first collision
// of a base key, a rename of the previously bare key.
func (a *Allocator) Assign(paper model.PaperRecord) (key string, rename map[string]string) {
	base := BaseKey(paper.Authors, paper.Year)
	n := a.counts[base]
	a.counts[base] = n + 1

	switch n {
	case 0:
		return base, nil
	case 1:
		return base + Suffix(1), map[string]string{base: base + Suffix(0)}
	default:
		return base + Suffix(n), nil
	}
}

// Suffix converts a zero-based collision index to its letter form:
// 0 -> "a", 25 -> "z", 26 -> "aa".
func Suffix(n int) string {
	var b []byte
	for {
		b = append([]byte{byte('a' + n%26)}, b...)
		n = n/26 - 1
		if n < 0 {
			return string(b)
		}
	}
}
