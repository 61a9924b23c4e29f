package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers that need to decide how to surface it.
type Kind int

const (
	KindInternal Kind = iota
	KindConfiguration
	KindValidation
	KindNotFound
	KindImmutable
	KindLoginRequired
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindImmutable:
		return "immutable"
	case KindLoginRequired:
		return "login_required"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Sentinel errors for comparison with errors.Is.
var (
	ErrNotFound             = errors.New("record not found")
	ErrNotAvailable         = errors.New("item is not available for purchase")
	ErrImmutable            = errors.New("record is finalized and cannot be modified")
	ErrLoginRequired        = errors.New("login required")
	ErrInvalidFilterField   = errors.New("field is not allowed as a filter")
	ErrCartMisconfigured    = errors.New("shopping cart is not configured")
	ErrCannotMerge          = errors.New("cannot merge items with catalog entries")
	ErrVersionConflict      = errors.New("record was modified concurrently")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrDuplicateCatalogItem = errors.New("catalog entry already exists for item")
	ErrUnverifiedReviewer   = errors.New("only customers can review items")
)

// Error carries the operation, kind and a user-facing message.
type Error struct {
	Kind    Kind
	Op      string
	Title   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

// Configuration reports an administrator misconfiguration. Blocks the save.
func Configuration(op, msg string, err error) *Error {
	return newError(KindConfiguration, op, msg, err)
}

// Validation reports a rejected shopper or admin action.
func Validation(op, msg string, err error) *Error {
	return newError(KindValidation, op, msg, err)
}

// NotFound reports a missing record.
func NotFound(op, msg string) *Error {
	return newError(KindNotFound, op, msg, ErrNotFound)
}

// Immutable reports a write on a finalized record.
func Immutable(op, msg string) *Error {
	return newError(KindImmutable, op, msg, ErrImmutable)
}

// LoginRequired reports an action that needs an authenticated shopper.
func LoginRequired(op string) *Error {
	return newError(KindLoginRequired, op, "please log in to continue", ErrLoginRequired)
}

// Conflict reports an optimistic concurrency failure.
func Conflict(op, msg string) *Error {
	return newError(KindConflict, op, msg, ErrVersionConflict)
}

// WithTitle sets the short title shown next to the message.
func (e *Error) WithTitle(title string) *Error {
	e.Title = title
	return e
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return err != nil && (errors.Is(err, ErrNotFound) || KindOf(err) == KindNotFound)
}

// HTTPStatus maps an error to the status code a handler should return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindConfiguration:
		return http.StatusUnprocessableEntity
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindImmutable, KindConflict:
		return http.StatusConflict
	case KindLoginRequired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to a client.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Message != "" {
			return appErr.Message
		}
		if appErr.Err != nil {
			return appErr.Err.Error()
		}
	}
	return "Internal server error"
}

// TitleOf returns the title of the first *Error in the chain that has one.
func TitleOf(err error) string {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return ""
		}
		if appErr.Title != "" {
			return appErr.Title
		}
		err = appErr.Err
	}
	return ""
}
