package model

import "fmt"

// ConfigError reports a persisted schema that could not be used.
type ConfigError struct {
	Form   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("form %s: %s: %v", e.Form, e.Reason, e.Err)
	}
	return fmt.Sprintf("form %s: %s", e.Form, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

type UploadErrorKind int

const (
	UploadMissing UploadErrorKind = iota + 1
	UploadDisallowedType
	UploadStorageFailure
)

func (k UploadErrorKind) String() string {
	switch k {
	case UploadMissing:
		return "missing"
	case UploadDisallowedType:
		return "disallowed_type"
	case UploadStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

// UploadError reports why a file field was not accepted.
type UploadError struct {
	Field       string
	Kind        UploadErrorKind
	ContentType string
	Err         error
}

func (e *UploadError) Error() string {
	msg := fmt.Sprintf("upload %s: %s", e.Field, e.Kind)
	if e.ContentType != "" {
		msg += " (" + e.ContentType + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UploadError) Unwrap() error { return e.Err }
