package btree

import (
	"errors"
	"fmt"

	"github.com/intellect4all/storage-engines/common"
)

// Kind identifies one of the error categories spec'd for the codec and
// tree driver. Callers that need to branch on the failure mode switch on
// Kind rather than string-matching error text.
type Kind int

const (
	// KindUnexpected is the catch-all: invariant violations, an invalid
	// node type tag, a missing parent pointer on a non-root node, or a
	// wrapped I/O failure from the pager or WAL.
	KindUnexpected Kind = iota
	KindKeyOverflow
	KindValueOverflow
	KindTryFromSlice
	KindUTF8
	KindKeyNotFound
)

func (k Kind) String() string {
	switch k {
	case KindKeyOverflow:
		return "KeyOverflow"
	case KindValueOverflow:
		return "ValueOverflow"
	case KindTryFromSlice:
		return "TryFromSlice"
	case KindUTF8:
		return "UTF8"
	case KindKeyNotFound:
		return "KeyNotFound"
	default:
		return "Unexpected"
	}
}

// Error wraps a Kind with a human-readable message and, where applicable,
// the underlying cause (an I/O error, a codec error bubbled up from a
// child page). It implements Unwrap so callers can still errors.Is against
// the exported sentinels below.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func wrapErr(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is lets errors.Is(err, ErrKeyNotFound) (etc.) work against an *Error of
// the matching Kind, without requiring the caller to compare messages. A
// KindKeyNotFound error also matches common.ErrKeyNotFound, so code that
// only knows the engine-agnostic sentinel (not this package's Kind enum)
// can still test for it.
func (e *Error) Is(target error) bool {
	if e.Kind == KindKeyNotFound && target == common.ErrKeyNotFound {
		return true
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons. Each carries only a Kind; the
// Msg/Cause fields on a returned *Error are filled in at the call site.
var (
	ErrUnexpected    = &Error{Kind: KindUnexpected}
	ErrKeyOverflow   = &Error{Kind: KindKeyOverflow}
	ErrValueOverflow = &Error{Kind: KindValueOverflow}
	ErrTryFromSlice  = &Error{Kind: KindTryFromSlice}
	ErrUTF8          = &Error{Kind: KindUTF8}
	ErrKeyNotFound   = &Error{Kind: KindKeyNotFound}
)

// errKind reports whether err (or something it wraps) is a *Error with the
// given Kind.
func errKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
