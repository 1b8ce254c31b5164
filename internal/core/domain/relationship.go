package domain

// RelationshipType is the closed set of cross-document relationship labels.
type RelationshipType string

// Relationship types.
const (
	RelationshipContradiction     RelationshipType = "contradiction"
	RelationshipSupport           RelationshipType = "support"
	RelationshipMethodologicalGap RelationshipType = "methodological_gap"
	RelationshipBuildsUpon        RelationshipType = "builds_upon"
	RelationshipSimilarFindings   RelationshipType = "similar_findings"
)

// AllRelationshipTypes returns the closed label set.
func AllRelationshipTypes() []RelationshipType {
	return []RelationshipType{
		RelationshipContradiction,
		RelationshipSupport,
		RelationshipMethodologicalGap,
		RelationshipBuildsUpon,
		RelationshipSimilarFindings,
	}
}

// IsValid returns true if the label belongs to the closed set.
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelationshipContradiction, RelationshipSupport, RelationshipMethodologicalGap,
		RelationshipBuildsUpon, RelationshipSimilarFindings:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t RelationshipType) String() string {
	return string(t)
}

// ParseRelationshipType maps a service answer onto the closed set,
// defaulting to similar_findings.
func ParseRelationshipType(answer string) RelationshipType {
	if t, ok := LookupRelationshipType(answer); ok {
		return t
	}
	return RelationshipSimilarFindings
}

// LookupRelationshipType maps an answer onto the closed set and reports
// whether it named a label.
func LookupRelationshipType(answer string) (RelationshipType, bool) {
	t := RelationshipType(normaliseLabel(answer))
	return t, t.IsValid()
}

// DocumentRelationship links a document to a similar document in the corpus.
type DocumentRelationship struct {
	TargetDocumentID string           `json:"targetDocumentId"`
	TargetTitle      string           `json:"targetTitle,omitempty"`
	Type             RelationshipType `json:"type"`
	Similarity       float64          `json:"similarity"`
	Description      string           `json:"description"`
	SpecificSections []string         `json:"specificSections"`
}
