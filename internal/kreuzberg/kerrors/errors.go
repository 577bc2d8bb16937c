// Package kerrors defines the structured error taxonomy shared by every
// extraction component.
package kerrors

import (
	"fmt"
	"time"
)

// Code classifies a processing failure by the stage that produced it.
type Code string

const (
	InvalidInput     Code = "INVALID_INPUT"
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	Parsing          Code = "PARSING"
	PasswordRequired Code = "PASSWORD_REQUIRED"
	InvalidPassword  Code = "INVALID_PASSWORD"
	OcrEngine        Code = "OCR_ENGINE"
	ImageProcessing  Code = "IMAGE_PROCESSING"
	IO               Code = "IO"
	Validation       Code = "VALIDATION"
	Plugin           Code = "PLUGIN"
	Cache            Code = "CACHE"
	Other            Code = "OTHER"
)

// ExtractionError is the structured error type returned by every package in
// this module. It carries enough context (code, subject, details) for a
// caller to branch on failure kind without parsing a message string.
type ExtractionError struct {
	Code      Code
	Message   string
	Subject   string // e.g. a file path, MIME type, or plugin name
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ToMap flattens the error into a plain map, suitable for JSON embedding in
// metadata.additional or a job ledger record.
func (e *ExtractionError) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}
	if e.Subject != "" {
		m["subject"] = e.Subject
	}
	for k, v := range e.Details {
		m[k] = v
	}
	if e.Cause != nil {
		m["cause"] = e.Cause.Error()
	}
	return m
}

func newErr(code Code, subject, msg string, cause error, details map[string]interface{}) *ExtractionError {
	return &ExtractionError{
		Code:      code,
		Message:   msg,
		Subject:   subject,
		Timestamp: time.Now(),
		Details:   details,
		Cause:     cause,
	}
}

func NewInvalidInput(subject, msg string, cause error) *ExtractionError {
	return newErr(InvalidInput, subject, msg, cause, nil)
}

func NewUnsupportedFormat(mimeType string) *ExtractionError {
	return newErr(UnsupportedFormat, mimeType, fmt.Sprintf("unsupported format: %s", mimeType), nil, map[string]interface{}{
		"mime_type": mimeType,
	})
}

func NewParsing(subject string, cause error) *ExtractionError {
	return newErr(Parsing, subject, fmt.Sprintf("failed to parse %s", subject), cause, nil)
}

func NewPasswordRequired(subject string) *ExtractionError {
	return newErr(PasswordRequired, subject, "document requires a password", nil, nil)
}

func NewInvalidPassword(subject string) *ExtractionError {
	return newErr(InvalidPassword, subject, "supplied password is incorrect", nil, nil)
}

func NewOcrEngine(subject string, cause error) *ExtractionError {
	return newErr(OcrEngine, subject, "OCR engine failed", cause, nil)
}

func NewImageProcessing(subject string, cause error) *ExtractionError {
	return newErr(ImageProcessing, subject, "image processing failed", cause, nil)
}

func NewIO(subject string, cause error) *ExtractionError {
	return newErr(IO, subject, "I/O failure", cause, nil)
}

func NewValidation(subject, msg string) *ExtractionError {
	return newErr(Validation, subject, msg, nil, nil)
}

func NewPlugin(subject string, cause error) *ExtractionError {
	return newErr(Plugin, subject, fmt.Sprintf("plugin %q failed", subject), cause, nil)
}

func NewCache(subject string, cause error) *ExtractionError {
	return newErr(Cache, subject, "cache operation failed", cause, nil)
}

func NewOther(subject, msg string, cause error) *ExtractionError {
	return newErr(Other, subject, msg, cause, nil)
}

// Is reports whether err is an *ExtractionError with the given code.
func Is(err error, code Code) bool {
	ee, ok := err.(*ExtractionError)
	return ok && ee.Code == code
}
