package errors

import "errors"

// Kind is the recovery class of an engine error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: bad input, the user corrects it.
	KindValidation
	// KindAuth: wrong credentials or a blocked write.
	KindAuth
	// KindNotFound: a missing review/target/user.
	KindNotFound
	// KindTransientGateway: the simulated backend failed; the user re-triggers.
	KindTransientGateway
	// KindConflict: the request collides with in-flight state (e.g. a running checkout).
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindTransientGateway:
		return "transient_gateway"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// KindError is a sentinel error tagged with a Kind and a client error code.
type KindError struct {
	kind    Kind
	code    string
	message string
}

// New creates a tagged sentinel. Compare with errors.Is.
func New(kind Kind, code, message string) *KindError {
	return &KindError{kind: kind, code: code, message: message}
}

func (e *KindError) Error() string { return e.message }

// Kind returns the error class.
func (e *KindError) Kind() Kind { return e.kind }

// Code returns the client error code.
func (e *KindError) Code() string { return e.code }

// KindOf walks the chain for a KindError and returns its kind.
func KindOf(err error) Kind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// CodeOf walks the chain for a KindError and returns its code.
func CodeOf(err error) string {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.code
	}
	return InternalServerError
}
