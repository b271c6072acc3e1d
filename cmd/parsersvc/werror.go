package main

// WrappedError reports an error (Outer) that occurred while handling
// an earlier one (Inner).
type WrappedError struct {
	Outer error `json:"outer"`
	Inner error `json:"inner"`
}

func (e *WrappedError) Error() string {
	return e.Outer.Error() + " after " + e.Inner.Error()
}

func (e *WrappedError) Unwrap() []error {
	return []error{e.Outer, e.Inner}
}

// NewWrappedError returns outer when inner is nil and inner when
// outer is nil.
func NewWrappedError(outer, inner error) error {
	if inner == nil {
		return outer
	}
	if outer == nil {
		return inner
	}
	return &WrappedError{
		Outer: outer,
		Inner: inner,
	}
}
