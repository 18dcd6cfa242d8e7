// Package gopnikerr defines the error taxonomy shared across the
// pipeline: kinds, not identifiers, each carrying enough context to act
// on without leaking sensitive content.
package gopnikerr

import "fmt"

// Code identifies an error category. Codes are grouped into six
// families: InputErrors, ProfileErrors, DetectionErrors,
// RedactionErrors, CryptoErrors, ResourceErrors.
type Code string

const (
	// InputErrors
	CodeUnsupportedFormat Code = "unsupported_format"
	CodeCorruptInput      Code = "corrupt_input"
	CodePageDecodeFailed  Code = "page_decode_failed"

	// ProfileErrors
	CodeInvalidProfile   Code = "invalid_profile"
	CodeUnknownPIIKind   Code = "unknown_pii_kind"
	CodeInheritanceCycle Code = "inheritance_cycle"

	// DetectionErrors
	CodeDetectorUnavailable Code = "detector_unavailable"
	CodeDetectorTimeout     Code = "detector_timeout"
	CodeInvalidDetection    Code = "invalid_detection"

	// RedactionErrors
	CodeRedactionFailed Code = "redaction_failed"

	// CryptoErrors
	CodeKeyNotFound        Code = "key_not_found"
	CodeSignatureFailed    Code = "signature_failed"
	CodeVerificationFailed Code = "verification_failed"

	// ResourceErrors
	CodeResourcePressure  Code = "resource_pressure"
	CodeCancelled         Code = "cancelled"
	CodeDeadlineExceeded  Code = "deadline_exceeded"
)

// recoverable reports the local-recovery-vs-surface policy: InputErrors
// (document-level), ProfileErrors, and CryptoErrors are
// always surfaced; DetectionErrors and RedactionErrors are recoverable
// locally unless strict_mode escalates them; ResourceErrors surface after
// an attempted graceful shutdown.
var recoverable = map[Code]bool{
	CodePageDecodeFailed:    true,
	CodeDetectorUnavailable: true,
	CodeDetectorTimeout:     true,
	CodeInvalidDetection:    true,
	CodeRedactionFailed:     true,
}

// Error is the concrete error type carried through the pipeline. It
// mirrors the adverant worker's ProcessingError shape: a code, a message,
// optional page context, and a wrapped cause.
type Error struct {
	Code      Code
	Message   string
	PageIndex *int
	Cause     error
}

func (e *Error) Error() string {
	if e.PageIndex != nil {
		return fmt.Sprintf("%s (page %d): %s", e.Code, *e.PageIndex, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Recoverable reports whether this error's code may be handled locally
// (degraded output, dropped detection, skipped page) rather than
// surfaced to the caller, absent strict_mode.
func (e *Error) Recoverable() bool { return recoverable[e.Code] }

// ToMap renders the error as a structured, loggable map with no sensitive
// payload — only code, message, page index, and cause text.
func (e *Error) ToMap() map[string]any {
	m := map[string]any{
		"code":    string(e.Code),
		"message": e.Message,
	}
	if e.PageIndex != nil {
		m["page_index"] = *e.PageIndex
	}
	if e.Cause != nil {
		m["cause"] = e.Cause.Error()
	}
	return m
}

func withPage(page int) *int { return &page }

func NewUnsupportedFormat(message string, cause error) *Error {
	return &Error{Code: CodeUnsupportedFormat, Message: message, Cause: cause}
}

func NewCorruptInput(message string, cause error) *Error {
	return &Error{Code: CodeCorruptInput, Message: message, Cause: cause}
}

func NewPageDecodeFailed(page int, cause error) *Error {
	return &Error{Code: CodePageDecodeFailed, Message: "page decode failed", PageIndex: withPage(page), Cause: cause}
}

func NewInvalidProfile(message string, cause error) *Error {
	return &Error{Code: CodeInvalidProfile, Message: message, Cause: cause}
}

func NewUnknownPIIKind(kind string) *Error {
	return &Error{Code: CodeUnknownPIIKind, Message: fmt.Sprintf("unknown pii kind %q", kind)}
}

func NewInheritanceCycle(profileName string) *Error {
	return &Error{Code: CodeInheritanceCycle, Message: fmt.Sprintf("inheritance cycle at %q", profileName)}
}

func NewDetectorUnavailable(message string, cause error) *Error {
	return &Error{Code: CodeDetectorUnavailable, Message: message, Cause: cause}
}

func NewDetectorTimeout(page int, cause error) *Error {
	return &Error{Code: CodeDetectorTimeout, Message: "detector timed out", PageIndex: withPage(page), Cause: cause}
}

func NewInvalidDetection(page int, message string) *Error {
	return &Error{Code: CodeInvalidDetection, Message: message, PageIndex: withPage(page)}
}

func NewRedactionFailed(page int, cause error) *Error {
	return &Error{Code: CodeRedactionFailed, Message: "redaction rendering failed", PageIndex: withPage(page), Cause: cause}
}

func NewKeyNotFound(keyID string) *Error {
	return &Error{Code: CodeKeyNotFound, Message: fmt.Sprintf("signing key %q not found", keyID)}
}

func NewSignatureFailed(cause error) *Error {
	return &Error{Code: CodeSignatureFailed, Message: "signing failed", Cause: cause}
}

func NewVerificationFailed(message string) *Error {
	return &Error{Code: CodeVerificationFailed, Message: message}
}

func NewResourcePressure(message string) *Error {
	return &Error{Code: CodeResourcePressure, Message: message}
}

func NewCancelled() *Error {
	return &Error{Code: CodeCancelled, Message: "cancelled by caller"}
}

func NewDeadlineExceeded(page int) *Error {
	return &Error{Code: CodeDeadlineExceeded, Message: "per-page deadline exceeded", PageIndex: withPage(page)}
}
