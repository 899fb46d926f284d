package engine

import "errors"

var (
	// ErrStoreRequired indicates a processor without a ledger store.
	ErrStoreRequired = errors.New("ledger store is required")
	// ErrPayloadNotUTF8 indicates a payload that is not valid UTF-8 text.
	ErrPayloadNotUTF8 = errors.New("payload is not valid utf-8")
	// ErrPayloadNotObject indicates a payload that is valid JSON but not an object.
	ErrPayloadNotObject = errors.New("payload must be a json object")
)

// StructuralError is a hard rejection: the input could not be processed.
type StructuralError struct {
	Code string
	Err  error
}

func (e *StructuralError) Error() string { return e.Err.Error() }
func (e *StructuralError) Unwrap() error { return e.Err }

// IsStructural reports whether err (or any error in its chain) is a
// structural rejection.
func IsStructural(err error) bool {
	var target *StructuralError
	return errors.As(err, &target)
}
