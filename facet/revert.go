package facet

import (
	"fmt"
)

// RevertError is a failure raised by facet logic. The diamond returns it to the caller as is.
type RevertError struct {
	Reason string
	Data   []byte
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}

	return "execution reverted: " + e.Reason
}

// Revert aborts the current call with reason.
func Revert(reason string) error {
	return &RevertError{Reason: reason}
}

// Revertf aborts the current call with a formatted reason.
func Revertf(format string, args ...any) error {
	return &RevertError{Reason: fmt.Sprintf(format, args...)}
}

// RevertWithData aborts the current call carrying an opaque payload.
func RevertWithData(reason string, data []byte) error {
	return &RevertError{Reason: reason, Data: data}
}
