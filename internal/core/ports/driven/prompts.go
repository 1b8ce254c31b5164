package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used by the pipeline.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptStructure extracts the document structure as JSON.
	// The template expects a %s placeholder for the document prefix.
	PromptStructure = "structure"

	// PromptClassify asks for one document type label.
	// The template expects a %s placeholder for the document prefix.
	PromptClassify = "classify"

	// PromptResearch produces a research paper analysis as JSON.
	// The template expects a %s placeholder for the document prefix.
	PromptResearch = "research"

	// PromptExperimental produces an experimental data analysis as JSON.
	// The template expects a %s placeholder for the document prefix.
	PromptExperimental = "experimental"

	// PromptRelationship types the link between two similar documents.
	// The template expects %s (source excerpt), %s (candidate title)
	// and %.2f (similarity) placeholders.
	PromptRelationship = "relationship"
)

// AllPromptNames returns the prompt names in pipeline order.
func AllPromptNames() []string {
	return []string{
		PromptStructure,
		PromptClassify,
		PromptResearch,
		PromptExperimental,
		PromptRelationship,
	}
}

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
