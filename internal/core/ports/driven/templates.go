package driven

// TemplateStore resolves localised prompt templates. Templates are
// addressed by (group, key) within a resolved language, with fallback
// to a configured default language.
type TemplateStore interface {
	// Language returns the resolved template language: the requested
	// language when its assets exist, otherwise the default.
	Language() string

	// Render substitutes vars into the named template and returns the
	// rendered string. Resolution falls back to the default language
	// when the group is missing for the resolved language. Returns
	// domain.ErrNotFound when the group or key cannot be resolved; an
	// empty group or key short-circuits without touching storage.
	Render(group, key string, vars map[string]any) (string, error)

	// Reload discards cached templates, forcing fresh loads.
	Reload() error
}

// Template groups and keys used by the retrieval engine.
const (
	// TemplateGroupRAG holds the retrieval-augmented generation prompts.
	TemplateGroupRAG = "rag"

	// TemplateKeySystemPrompt frames the assistant's behaviour. No variables.
	TemplateKeySystemPrompt = "system_prompt"

	// TemplateKeyDocumentPrompt renders one retrieved document.
	// Variables: doc_num (1-indexed rank), chunk_text.
	TemplateKeyDocumentPrompt = "document_prompt"

	// TemplateKeyFooterPrompt closes the prompt with the user's query.
	// Variables: query.
	TemplateKeyFooterPrompt = "footer_prompt"
)
