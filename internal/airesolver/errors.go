package airesolver

import "fmt"

// ErrorKind distinguishes the failure modes of the resolution pipeline
type ErrorKind string

const (
	// ErrKindNoStructure means the model reply contained no {...} or [...]
	ErrKindNoStructure ErrorKind = "no_json_structure"
	// ErrKindParse means an extracted JSON candidate failed to parse
	ErrKindParse ErrorKind = "invalid_json"
	// ErrKindSchema means the parsed object failed schema validation
	ErrKindSchema ErrorKind = "schema_validation"
	// ErrKindOversizedBody means the merged body exceeded the size ceiling
	ErrKindOversizedBody ErrorKind = "oversized_body"
	// ErrKindPrompt means the slot template failed to render
	ErrKindPrompt ErrorKind = "prompt"
	// ErrKindCompletion means the completion call itself failed
	ErrKindCompletion ErrorKind = "completion"
)

// ResolutionError is fatal to the endpoint execution attempt it occurred in
type ResolutionError struct {
	Kind    ErrorKind
	Slot    string
	Message string
	Raw     string // raw model reply, kept for parse failures
	Cause   error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("AI resolution failed (%s, slot %s): %s", e.Kind, e.Slot, e.Message)
	if e.Raw != "" {
		msg += fmt.Sprintf(" (raw response: %.200s)", e.Raw)
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}
