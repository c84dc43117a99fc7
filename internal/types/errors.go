package types

import "fmt"

// Error is the error type of this module. The code identifies the kind of failure,
// the context carries the values that were involved.
type Error struct {
	Code    string
	Context map[string]any
}

func (err Error) Error() string {
	return fmt.Sprintf("%+v: %+v", err.Code, err.Context)
}

// Is matches errors by code, so that errors.Is(err, Error{Code: code}) works.
func (err Error) Is(target error) bool {
	other, ok := target.(Error)
	return ok && other.Code == err.Code
}

// NewError builds an error from a code and alternating context keys and values.
func NewError(code string, args ...any) Error {
	n := len(args)
	if n%2 != 0 {
		panic("Invalid error context args")
	}
	err := Error{Code: code, Context: make(map[string]any, n/2)}
	for i := 0; i < n; i += 2 {
		s, ok := args[i].(string)
		if !ok {
			panic("Invalid error context args")
		}
		err.Context[s] = args[i+1]
	}
	return err
}
