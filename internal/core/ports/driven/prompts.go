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

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem is the system prompt for context-grounded answers.
	// The template expects %[1]s (no-results sentinel), %[2]s (refusal phrase)
	// and %[3]s (citation marker) placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser frames the assembled context and the question.
	// The template expects %[1]s (context) and %[2]s (question) placeholders.
	PromptAnswerUser = "answer_user"
)

// DefaultPrompts returns the built-in prompt templates.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptAnswerSystem: `You are OpsMind, an assistant that answers questions about company documents and standard operating procedures.

Rules:
1. Answer ONLY from the CONTEXT supplied with the question. Never use outside knowledge.
2. If the CONTEXT is exactly %[1]s, or does not contain the answer, reply with exactly: "%[2]s"
3. When your answer uses the CONTEXT, end it with the marker %[3]s on its own line. Never write the marker otherwise.
4. Mention the document name and page you relied on.
5. Be concise and use numbered steps for procedures.`,

		PromptAnswerUser: `CONTEXT:
%[1]s

QUESTION: %[2]s`,
	}
}
