package hostapi

import (
	"errors"
	"fmt"
)

var (
	// ErrInputOverflowed signals that input data was discarded because
	// the caller did not drain the device fast enough. Soft condition.
	ErrInputOverflowed = errors.New("input overflowed")

	// ErrOutputUnderflowed signals that the output buffer ran dry,
	// likely producing an audible gap. Soft condition.
	ErrOutputUnderflowed = errors.New("output underflowed")

	// ErrBadStream reports a control call against a stream handle that
	// is already closed or otherwise unusable.
	ErrBadStream = errors.New("bad stream handle")
)

// HostError is a hard failure reported by the native layer, carrying the
// native status code and its human-readable message.
type HostError struct {
	Code int
	Text string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host error %d: %s", e.Code, e.Text)
}

// IsSoft reports whether err is a transient under/overrun condition that
// streaming is expected to continue through.
func IsSoft(err error) bool {
	return errors.Is(err, ErrInputOverflowed) || errors.Is(err, ErrOutputUnderflowed)
}
