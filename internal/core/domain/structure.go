package domain

// Section is a heading-delimited part of a document.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Level   int    `json:"level"`
}

// DocumentStructure is the structure-analysis output for a document.
// Optional text fields are empty when not found.
type DocumentStructure struct {
	Title       string    `json:"title,omitempty"`
	Abstract    string    `json:"abstract,omitempty"`
	Methodology string    `json:"methodology,omitempty"`
	Conclusion  string    `json:"conclusion,omitempty"`
	Sections    []Section `json:"sections"`
	References  []string  `json:"references"`
	Figures     []string  `json:"figures"`
	Tables      []string  `json:"tables"`
}

// Normalise replaces nil lists with empty ones so the structure always
// serialises with the same shape.
func (s *DocumentStructure) Normalise() {
	if s.Sections == nil {
		s.Sections = []Section{}
	}
	if s.References == nil {
		s.References = []string{}
	}
	if s.Figures == nil {
		s.Figures = []string{}
	}
	if s.Tables == nil {
		s.Tables = []string{}
	}
}

// FindSection returns the content of the first section whose title
// contains any of the given names (case-insensitive).
func (s *DocumentStructure) FindSection(names ...string) (Section, bool) {
	for _, sec := range s.Sections {
		if containsFold(sec.Title, names) {
			return sec, true
		}
	}
	return Section{}, false
}
