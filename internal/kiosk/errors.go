package kiosk

import "fmt"

// TransportError covers every failure that prevents a complete, well-formed
// exchange with the kiosk: an unreadable local file, a connection failure,
// or a response with a status other than 200.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("kiosk %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a 200 response whose body is not valid
// JSON. A valid JSON body that merely lacks an expected field is not an
// error; the corresponding result is simply left unset.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("kiosk %s: malformed response: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
