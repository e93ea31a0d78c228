package engine

import "errors"

// Kind classifies engine errors for the transport layer. The mapping is
// kind-stable: callers may rely on the kind and code, never on the
// message text.
type Kind int

const (
	// KindNotFound: project, node, or draft absent, or not belonging
	// to the referenced project.
	KindNotFound Kind = iota + 1
	// KindInvalidState: the entity exists but its state forbids the
	// operation (follow-up without an answer, choose on a non-tip
	// node, finalized draft, incomplete project merge).
	KindInvalidState
	// KindValidation: empty or malformed input content.
	KindValidation
)

// Error is a typed engine error carrying a stable machine code such as
// "no_answer" or "project_not_found".
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string { return e.Code }

func notFound(code string) *Error     { return &Error{Kind: KindNotFound, Code: code} }
func invalidState(code string) *Error { return &Error{Kind: KindInvalidState, Code: code} }
func validation(code string) *Error   { return &Error{Kind: KindValidation, Code: code} }

// KindOf returns the error's kind, or 0 for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// CodeOf returns the error's stable code, or "" for foreign errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err is an engine NotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsInvalidState reports whether err is an engine InvalidState error.
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

// IsValidation reports whether err is an engine Validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
