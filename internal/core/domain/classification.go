package domain

import "strings"

// DocumentType is the classifier's closed label set.
type DocumentType string

// Document type labels.
const (
	DocumentTypeResearchPaper    DocumentType = "research_paper"
	DocumentTypeExperimentalData DocumentType = "experimental_data"
	DocumentTypeReview           DocumentType = "review"
	DocumentTypeProtocol         DocumentType = "protocol"
	DocumentTypeReport           DocumentType = "report"
	DocumentTypeOther            DocumentType = "other"
)

// AllDocumentTypes returns the closed label set.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeResearchPaper,
		DocumentTypeExperimentalData,
		DocumentTypeReview,
		DocumentTypeProtocol,
		DocumentTypeReport,
		DocumentTypeOther,
	}
}

// IsValid returns true if the label belongs to the closed set.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeResearchPaper, DocumentTypeExperimentalData, DocumentTypeReview,
		DocumentTypeProtocol, DocumentTypeReport, DocumentTypeOther:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// ParseDocumentType maps a free-text service answer onto the closed set.
// Anything that is not exactly one label after normalisation becomes other.
func ParseDocumentType(answer string) DocumentType {
	t := DocumentType(normaliseLabel(answer))
	if t.IsValid() {
		return t
	}
	return DocumentTypeOther
}

// normaliseLabel lowercases, trims quotes and punctuation, and joins words with underscores.
func normaliseLabel(answer string) string {
	label := strings.ToLower(strings.TrimSpace(answer))
	label = strings.Trim(label, "\"'`.,;:!()[]{}* \t\n")
	label = strings.Join(strings.FieldsFunc(label, func(r rune) bool {
		return r == ' ' || r == '-' || r == '\t' || r == '_'
	}), "_")
	return label
}

// containsFold reports whether s contains any of the needles, ignoring case.
func containsFold(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
