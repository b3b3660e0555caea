package model

// EvidenceItem is a relevance-accepted paper together with the text the
// drafting stage may cite. Text is the extracted full text, or the abstract
// when no full-text locator existed.
type EvidenceItem struct {
	Paper        PaperRecord `json:"paper"`
	Text         string      `json:"text"`
	Summary      string      `json:"summary,omitempty"` // topic-focused digest, may be empty
	FromAbstract bool        `json:"from_abstract"`
}

// Snippet returns the text to serialize into drafting prompts: the digest
// when one was produced, otherwise the extracted text clipped to max runes.
func (e *EvidenceItem) Snippet(max int) string {
	s := e.Summary
	if s == "" {
		s = e.Text
	}
	runes := []rune(s)
	if max > 0 && len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return s
}

// EvidenceCorpus maps citation keys to evidence items while preserving the
// order in which items were added. Items are only ever added or re-keyed
// during collection; the corpus never shrinks.
type EvidenceCorpus struct {
	items map[string]*EvidenceItem
	order []string
}

// NewCorpus returns an empty corpus.
func NewCorpus() *EvidenceCorpus {
	return &EvidenceCorpus{items: make(map[string]*EvidenceItem)}
}

// Add inserts an item under the given citation key.
func (c *EvidenceCorpus) Add(key string, item *EvidenceItem) {
	if _, exists := c.items[key]; exists {
		return
	}
	c.items[key] = item
	c.order = append(c.order, key)
}

// Rekey renames an existing entry, keeping its encounter position. Used only
// while the corpus is still being built, when a later paper collides with an
// earlier one's base citation key.
func (c *EvidenceCorpus) Rekey(old, new string) {
	item, ok := c.items[old]
	if !ok {
		return
	}
	delete(c.items, old)
	c.items[new] = item
	for i, k := range c.order {
		if k == old {
			c.order[i] = new
			break
		}
	}
}

// Get returns the item for a citation key.
func (c *EvidenceCorpus) Get(key string) (*EvidenceItem, bool) {
	item, ok := c.items[key]
	return item, ok
}

// Keys returns all citation keys in encounter order.
func (c *EvidenceCorpus) Keys() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// Len returns the number of items in the corpus.
func (c *EvidenceCorpus) Len() int {
	return len(c.order)
}

// SectionDraft is a named outline section paired with generated prose that
// may embed citation-key markers of the form [Smith2021].
type SectionDraft struct {
	Name string `json:"name"`
	Text string `json:"text"`
}
