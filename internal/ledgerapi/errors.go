package ledgerapi

import (
	"errors"
	"fmt"
)

// Kind separates failures the caller can do nothing about (the request never
// completed) from rejections issued by the ledger itself.
type Kind int

const (
	// KindNetwork means the request could not complete: refused connection,
	// timeout, cancelled context.
	KindNetwork Kind = iota + 1
	// KindApplication means the ledger answered but rejected the request or
	// returned a body that could not be decoded.
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindApplication:
		return "application"
	default:
		return "unknown"
	}
}

// Error is the failure returned by every Client operation.
type Error struct {
	Kind    Kind
	Op      string
	Status  int    // HTTP status, zero for network failures
	Message string // ledger-provided reason when available
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNetwork:
		return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: ledger rejected request (%d): %s", e.Op, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: invalid ledger response: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: ledger rejected request (%d)", e.Op, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether err is a gateway network failure.
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindNetwork
}

// IsApplication reports whether err is a ledger-side rejection.
func IsApplication(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindApplication
}
