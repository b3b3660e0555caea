// Package reconcile cross-checks the citation markers embedded in drafted
// sections against the evidence corpus and materialises the reference list.
package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mlindgren/litsurvey/internal/cite"
	"github.com/mlindgren/litsurvey/internal/model"
)

// IntegrityError reports a citation marker that names no corpus entry. The
// document cannot ship with a dangling citation, so reconciliation fails
// rather than silently dropping the marker.
type IntegrityError struct {
	Section string
	Key     string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("section %q cites unknown key [%s]", e.Section, e.Key)
}

// ReferenceList is the ordered, deduplicated set of works actually cited.
type ReferenceList struct {
	entries []entry
}

type entry struct {
	key   string
	paper model.PaperRecord
}

// Build scans the drafted sections in order, collects each distinct citation
// key at its first occurrence, and resolves every key against the corpus.
// Evidence that no section cites is excluded from the result. All dangling
// keys are reported together so one pass surfaces every problem.
func Build(sections []model.SectionDraft, corpus *model.EvidenceCorpus) (*ReferenceList, error) {
	seen := make(map[string]bool)
	var dangling []error
	list := &ReferenceList{}

	for _, section := range sections {
		for _, match := range cite.MarkerPattern.FindAllStringSubmatch(section.Text, -1) {
			key := match[1]
			if seen[key] {
				continue
			}
			seen[key] = true

			item, ok := corpus.Get(key)
			if !ok {
				dangling = append(dangling, &IntegrityError{Section: section.Name, Key: key})
				continue
			}
			list.entries = append(list.entries, entry{key: key, paper: item.Paper})
		}
	}

	if len(dangling) > 0 {
		return nil, errors.Join(dangling...)
	}

	list.sortEntries()
	return list, nil
}

// sortEntries orders references by first-author surname, then year, then
// title, all case-insensitive. Sorting is total so rendering is
// deterministic across runs.
func (r *ReferenceList) sortEntries() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		a, b := r.entries[i].paper, r.entries[j].paper
		as, bs := strings.ToLower(firstSurname(a)), strings.ToLower(firstSurname(b))
		if as != bs {
			return as < bs
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

// Len reports the number of cited works.
func (r *ReferenceList) Len() int { return len(r.entries) }

// Keys returns the citation keys in rendered order.
func (r *ReferenceList) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.key
	}
	return keys
}

// Render produces the References section in Markdown. Rendering is pure:
// the same list always yields byte-identical output.
func (r *ReferenceList) Render() string {
	var b strings.Builder
	b.WriteString("## References\n\n")
	for _, e := range r.entries {
		b.WriteString(fmt.Sprintf("- **[%s]** %s\n", e.key, FormatEntry(e.paper)))
	}
	return b.String()
}

// FormatEntry renders one bibliographic entry in an APA-like style:
// "Last, F. (Year). Title. Venue." Missing fields are omitted rather than
// rendered as placeholders.
func FormatEntry(p model.PaperRecord) string {
	var parts []string

	if authors := formatAuthors(p.Authors); authors != "" {
		parts = append(parts, authors)
	}
	if p.Year > 0 {
		parts = append(parts, fmt.Sprintf("(%d).", p.Year))
	} else {
		parts = append(parts, "(n.d.).")
	}
	if title := strings.TrimSpace(p.Title); title != "" {
		parts = append(parts, ensurePeriod(title))
	}
	if venue := strings.TrimSpace(p.Venue); venue != "" {
		parts = append(parts, "*"+venue+"*.")
	}
	return strings.Join(parts, " ")
}

func formatAuthors(authors []model.Author) string {
	if len(authors) == 0 {
		return ""
	}
	var names []string
	for _, a := range authors {
		name := strings.TrimSpace(a.Last)
		if name == "" {
			name = strings.TrimSpace(a.First)
			if name == "" {
				continue
			}
			names = append(names, name)
			continue
		}
		if initial := firstInitial(a.First); initial != "" {
			name += ", " + initial + "."
		}
		names = append(names, name)
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " & " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", & " + names[len(names)-1]
	}
}

func firstInitial(first string) string {
	for _, r := range strings.TrimSpace(first) {
		return string(r)
	}
	return ""
}

func firstSurname(p model.PaperRecord) string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0].Last
}

func ensurePeriod(s string) string {
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!") {
		return s
	}
	return s + "."
}
