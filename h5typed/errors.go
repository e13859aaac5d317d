package h5typed

import (
	"errors"

	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// Error kinds. Every failure returned by a public operation is one of
// these sentinels carrying contextual detail; classify with errors.Is or
// the Is* helpers below.
var (
	ErrNoSuchObject      = merry.New("no such object")
	ErrNotADataset       = merry.New("object is not a dataset")
	ErrNotAGroup         = merry.New("object is not a group")
	ErrNotAReference     = merry.New("value is not an object reference")
	ErrRankMismatch      = merry.New("rank mismatch")
	ErrShapeMismatch     = merry.New("shape mismatch")
	ErrTypeMismatch      = merry.New("datatype mismatch")
	ErrEnumIncompatible  = merry.New("committed enumeration is incompatible")
	ErrOrdinalOutOfRange = merry.New("enum ordinal out of range")
	ErrUnknownEnumValue  = merry.New("unknown enum value")
	ErrNarrowingOverflow = merry.New("value does not fit narrower storage")
	ErrLayoutUnsupported = merry.New("layout or option combination unsupported")
	ErrBinding           = merry.New("binding error")
	ErrIo                = merry.New("i/o failure")
	ErrClosed            = merry.New("file is closed")
)

// IsNoSuchObject reports whether err is a missing-object failure.
func IsNoSuchObject(err error) bool { return merry.Is(err, ErrNoSuchObject) }

// IsShapeMismatch reports whether err is a shape or selection failure.
func IsShapeMismatch(err error) bool { return merry.Is(err, ErrShapeMismatch) }

// IsRankMismatch reports whether err is a rank failure.
func IsRankMismatch(err error) bool { return merry.Is(err, ErrRankMismatch) }

// IsEnumIncompatible reports whether err is an enum compatibility failure.
func IsEnumIncompatible(err error) bool { return merry.Is(err, ErrEnumIncompatible) }

// wrapBinding classifies an error coming out of the binding for the object
// at path. Binding sentinels map onto the public error kinds; anything
// unrecognized is surfaced as ErrBinding.
func wrapBinding(err error, path string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, binding.ErrNotFound):
		return merry.Appendf(ErrNoSuchObject, "%q: %v", path, err)
	case errors.Is(err, binding.ErrWrongType):
		return merry.Appendf(ErrTypeMismatch, "%q: %v", path, err)
	case errors.Is(err, binding.ErrSelection):
		return merry.Appendf(ErrShapeMismatch, "%q: %v", path, err)
	case errors.Is(err, binding.ErrUnsupported):
		return merry.Appendf(ErrLayoutUnsupported, "%q: %v", path, err)
	default:
		return merry.Appendf(ErrBinding, "%q: %v", path, err).WithValue("cause", err)
	}
}
