package corpus

// Entry is a single FAQ question/answer pair.
type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Corpus is the ordered, immutable set of known question/answer pairs.
type Corpus struct {
	entries []Entry
}

// New creates a corpus from entries. The input slice is copied; entries with an
// empty question are skipped.
func New(entries []Entry) Corpus {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Question == "" {
			continue
		}
		kept = append(kept, e)
	}
	return Corpus{entries: kept}
}

// Len returns the number of entries.
func (c Corpus) Len() int { return len(c.entries) }

// IsEmpty reports whether the corpus has no entries.
func (c Corpus) IsEmpty() bool { return len(c.entries) == 0 }

// Entry returns the entry at index i.
func (c Corpus) Entry(i int) Entry { return c.entries[i] }

// Questions returns a copy of all questions in corpus order.
func (c Corpus) Questions() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Question
	}
	return out
}

// Entries returns a copy of all entries.
func (c Corpus) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
