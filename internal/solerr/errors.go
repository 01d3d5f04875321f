// Package solerr defines the error taxonomy shared by every package in this
// module. Every public operation returns either a value or one of the kinds
// below, distinguished by tag so that callers can type-switch on Kind rather
// than string-match on Error().
package solerr

import "fmt"

// Kind tags the category of failure, mirroring the taxonomy in spec.md §7.
type Kind int

const (
	KindNotFound Kind = iota
	KindProvider
	KindBcState
	KindInvalidTransaction
	KindInvalidHeader
	KindConfig
	KindExec
	KindAbi
	KindInterrupted
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindProvider:
		return "provider"
	case KindBcState:
		return "bc_state"
	case KindInvalidTransaction:
		return "invalid_transaction"
	case KindInvalidHeader:
		return "invalid_header"
	case KindConfig:
		return "config"
	case KindExec:
		return "exec"
	case KindAbi:
		return "abi"
	case KindInterrupted:
		return "interrupted"
	default:
		return "custom"
	}
}

// Error is the concrete error type every package in this module returns.
type Error struct {
	Kind    Kind
	Message string
	// Detail carries the underlying error for the kinds built by a wrapping
	// constructor (Provider, InvalidTransaction, InvalidHeader, Abi).
	// Optional; KindExec carries its result only in Message.
	Detail error
}

func (e *Error) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Detail }

func new_(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func wrap(k Kind, detail error, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Detail: detail}
}

func NotFound(format string, args ...any) *Error { return new_(KindNotFound, format, args...) }

func Provider(detail error, format string, args ...any) *Error {
	return wrap(KindProvider, detail, format, args...)
}

func BcState(format string, args ...any) *Error { return new_(KindBcState, format, args...) }

func InvalidTransaction(detail error, format string, args ...any) *Error {
	return wrap(KindInvalidTransaction, detail, format, args...)
}

func InvalidHeader(detail error, format string, args ...any) *Error {
	return wrap(KindInvalidHeader, detail, format, args...)
}

func Config(format string, args ...any) *Error { return new_(KindConfig, format, args...) }

// Exec(detail) wraps an unsuccessful ExecutionResult; detail is formatted via
// %v by the caller since ExecutionResult lives in the transition package and
// solerr must not import it (it would create an import cycle).
func Exec(format string, args ...any) *Error { return new_(KindExec, format, args...) }

func Abi(detail error, format string, args ...any) *Error {
	return wrap(KindAbi, detail, format, args...)
}

func Interrupted() *Error { return new_(KindInterrupted, "execution interrupted at a checkpoint") }

func Custom(format string, args ...any) *Error { return new_(KindCustom, format, args...) }

// Is reports whether err is a *Error of the given kind.
func Is(err error, k Kind) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == k
}
