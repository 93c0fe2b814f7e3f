// Package apperr defines the error taxonomy shared across repository,
// indexing, and agent-loop operations.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of error in the taxonomy.
type Kind string

const (
	KindInvalidArguments     Kind = "invalid_arguments"
	KindNotFound             Kind = "not_found"
	KindAlreadyExists        Kind = "already_exists"
	KindAuthenticationReq    Kind = "authentication_required"
	KindPermissionDenied     Kind = "permission_denied"
	KindDirtyWorkingTree     Kind = "dirty_working_tree"
	KindRefNotFound          Kind = "ref_not_found"
	KindDiverged             Kind = "diverged"
	KindDimensionMismatch    Kind = "dimension_mismatch"
	KindUnsupportedLanguage  Kind = "unsupported_language"
	KindParseFailure         Kind = "parse_failure"
	KindEmbeddingFailure     Kind = "embedding_failure"
	KindVectorStoreFailure   Kind = "vector_store_failure"
	KindIterationLimit       Kind = "iteration_limit_exceeded"
	KindInvalidPhaseTransit  Kind = "invalid_phase_transition"
	KindCancelled            Kind = "cancelled"
	KindIoFailure            Kind = "io_failure"
	KindInternal             Kind = "internal"
)

// Error is the concrete error type carrying a taxonomy Kind, an optional
// identifier, and a retriable flag for the two kinds that distinguish
// transient from fatal failures (EmbeddingFailure, VectorStoreFailure).
type Error struct {
	Kind       Kind
	Identifier string
	Retriable  bool
	Err        error
}

func (e *Error) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("%s(%s): %v", e.Kind, e.Identifier, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, apperr.KindX) style comparisons via a sentinel
// wrapper; callers more commonly use the Kind-specific helpers below.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newErr(kind Kind, identifier string, retriable bool, err error) *Error {
	return &Error{Kind: kind, Identifier: identifier, Retriable: retriable, Err: err}
}

func InvalidArguments(format string, args ...any) error {
	return newErr(KindInvalidArguments, "", false, fmt.Errorf(format, args...))
}

func NotFound(kind, identifier string) error {
	return newErr(KindNotFound, identifier, false, fmt.Errorf("%s not found: %s", kind, identifier))
}

func AlreadyExists(kind, identifier string) error {
	return newErr(KindAlreadyExists, identifier, false, fmt.Errorf("%s already exists: %s", kind, identifier))
}

func AuthenticationRequired(err error) error {
	return newErr(KindAuthenticationReq, "", false, err)
}

func PermissionDenied(err error) error {
	return newErr(KindPermissionDenied, "", false, err)
}

func DirtyWorkingTree(path string) error {
	return newErr(KindDirtyWorkingTree, path, false, fmt.Errorf("working tree is dirty: %s", path))
}

func RefNotFound(ref string) error {
	return newErr(KindRefNotFound, ref, false, fmt.Errorf("ref not found: %s", ref))
}

func Diverged(branch string) error {
	return newErr(KindDiverged, branch, false, fmt.Errorf("local and remote history diverged on %s", branch))
}

func DimensionMismatch(collection string, want, got int) error {
	return newErr(KindDimensionMismatch, collection, false, fmt.Errorf("collection %s expects dimension %d, got %d", collection, want, got))
}

func UnsupportedLanguage(ext string) error {
	return newErr(KindUnsupportedLanguage, ext, false, fmt.Errorf("unsupported language for extension %s", ext))
}

func ParseFailure(path string, err error) error {
	return newErr(KindParseFailure, path, false, fmt.Errorf("parse failure in %s: %w", path, err))
}

func EmbeddingFailure(retriable bool, err error) error {
	return newErr(KindEmbeddingFailure, "", retriable, err)
}

func VectorStoreFailure(retriable bool, err error) error {
	return newErr(KindVectorStoreFailure, "", retriable, err)
}

func IterationLimitExceeded(limit int) error {
	return newErr(KindIterationLimit, "", false, fmt.Errorf("iteration limit of %d exceeded", limit))
}

func InvalidPhaseTransition(from, to string) error {
	return newErr(KindInvalidPhaseTransit, "", false, fmt.Errorf("invalid phase transition: %s -> %s", from, to))
}

func Cancelled() error {
	return newErr(KindCancelled, "", false, errors.New("operation cancelled"))
}

func IoFailure(err error) error {
	return newErr(KindIoFailure, "", false, err)
}

func Internal(err error) error {
	return newErr(KindInternal, "", false, err)
}

// IsRetriable reports whether err is an *Error marked retriable.
func IsRetriable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retriable
	}
	return false
}

// KindOf extracts the Kind from err, returning ("", false) if err is not
// one of ours.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
