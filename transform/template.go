package transform

import "strings"

// Placeholder is the literal token replaced by the captured text when a
// template expands. Replacement is textual; there are no escaping semantics.
const Placeholder = "{input}"

// MaxTemplateLen bounds custom prompt templates.
const MaxTemplateLen = 10000

// Built-in prompt codes. These are fixed and non-deletable, as opposed to
// user-created custom prompt ids.
const (
	CodeRephrase  = "REPHRASE"
	CodeSummarize = "SUMMARIZE"
	CodeLegalify  = "LEGALIFY"
)

// BuiltinAction is a fixed transformation with its template and the constant
// request parameters the API expects for built-in codes.
type BuiltinAction struct {
	Code     string
	Name     string
	Template string
	Tone     string
	Context  string
	Audience string
}

var builtins = map[string]BuiltinAction{
	CodeRephrase: {
		Code:     CodeRephrase,
		Name:     "Rephrase",
		Template: "Rephrase the following text so it reads clearly and naturally while keeping its meaning:\n\n{input}",
		Tone:     "neutral",
		Context:  "general",
		Audience: "general",
	},
	CodeSummarize: {
		Code:     CodeSummarize,
		Name:     "Summarize",
		Template: "Summarize the following text in a few concise sentences:\n\n{input}",
		Tone:     "concise",
		Context:  "general",
		Audience: "general",
	},
	CodeLegalify: {
		Code:     CodeLegalify,
		Name:     "Legalify",
		Template: "Rewrite the following text in precise, formal language suitable for a legal context:\n\n{input}",
		Tone:     "formal",
		Context:  "legal",
		Audience: "legal",
	},
}

// BuiltinFor returns the built-in action for a code, if the code is one.
func BuiltinFor(code string) (BuiltinAction, bool) {
	a, ok := builtins[code]
	return a, ok
}

// Builtins returns every built-in action.
func Builtins() []BuiltinAction {
	return []BuiltinAction{builtins[CodeRephrase], builtins[CodeSummarize], builtins[CodeLegalify]}
}

// Expand substitutes every occurrence of the placeholder in template with
// input. Templates without a placeholder get the input appended after a
// human-readable delimiter block instead.
func Expand(template, input string) string {
	if strings.Contains(template, Placeholder) {
		return strings.ReplaceAll(template, Placeholder, input)
	}
	// No placeholder: append the input after a delimiter block so malformed
	// templates never silently drop the user's text.
	return template + "\n\nText:\n---\n" + input + "\n---"
}
