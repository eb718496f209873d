// Package qerr carries a stable error category plus the provisioning stage
// that produced it, so the CLI can switch on codes without parsing messages.
package qerr

import (
	"errors"
	"fmt"
)

// Code represents a stable error category that callers can switch on.
type Code string

const (
	CodeUnknown             Code = "unknown"
	CodeManifestNotFound    Code = "manifest_not_found"
	CodeMalformedManifest   Code = "malformed_manifest"
	CodeFetchToolFailure    Code = "fetch_tool_failure"
	CodeUploadFailure       Code = "upload_failure"
	CodeProvisioningFailure Code = "provisioning_failure"
	CodeConfigInvalid       Code = "config_invalid"
	CodeDeploymentLocked    Code = "deployment_locked"
)

// Stage names the orchestration step an error came from.
type Stage string

const (
	StageResolve      Stage = "resolve"
	StageFetch        Stage = "fetch"
	StageBucket       Stage = "bucket"
	StageUpload       Stage = "upload"
	StageAccess       Stage = "access"
	StageDistribution Stage = "distribution"
)

// Error is a value type that carries a Code, the Stage it surfaced in, an
// optional Subject (file path, resource name or command line) and the
// underlying error.
type Error struct {
	Code    Code
	Stage   Stage
	Subject string
	err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Code)
	if e.Stage != "" {
		msg = string(e.Stage) + ": " + msg
	}
	if e.Subject != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Subject)
	}
	if e.err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// New wraps an error with the provided code. If err is nil a nil is returned.
func New(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: err}
}

// WithSubject wraps err with a code and the thing it failed on.
func WithSubject(code Code, subject string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Subject: subject, err: err}
}

// InStage stamps err with the stage it surfaced in. A qerr.Error keeps its
// code and subject; anything else is classified under fallback.
func InStage(stage Stage, fallback Code, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Stage == "" {
			cp := *e
			cp.Stage = stage
			return &cp
		}
		return err
	}
	return &Error{Code: fallback, Stage: stage, err: err}
}

// IsCode helps callers compare codes without type assertions.
func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first qerr.Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// StageOf returns the stage recorded on err, if any.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
