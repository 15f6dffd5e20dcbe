package index

// TermTable assigns every term a stable row id in first-seen order. The ids
// address rows of the term-document matrix.
type TermTable struct {
	ids   map[string]int
	terms []string
}

func NewTermTable() *TermTable {
	return &TermTable{ids: make(map[string]int)}
}

// Assign returns the id of term, allocating the next one if it is new.
func (t *TermTable) Assign(term string) int {
	if id, ok := t.ids[term]; ok {
		return id
	}
	id := len(t.terms)
	t.ids[term] = id
	t.terms = append(t.terms, term)
	return id
}

func (t *TermTable) ID(term string) (int, bool) {
	id, ok := t.ids[term]
	return id, ok
}

// Term returns the term with the given id.
func (t *TermTable) Term(id int) string {
	return t.terms[id]
}

func (t *TermTable) Len() int {
	return len(t.terms)
}
