package client

import (
	"fmt"

	"github.com/tacplusgo/tacacs-plus-go/wire"
)

// ErrorKind classifies a client-layer error, following the shape of the
// reference implementation's client error taxonomy.
type ErrorKind int

const (
	ErrIO ErrorKind = iota
	ErrSerialize
	ErrInvalidPacketReceived
	ErrInvalidPacketData
	ErrPasswordTooLong
	ErrTooManyArguments
	ErrInvalidArgument
	ErrInvalidContext
	ErrSequenceNumberMismatchKind
	ErrSequenceNumberOverflowKind
	ErrAuthentication
	ErrAuthorization
	ErrAccounting
	ErrClock
)

// Error is the error type returned by every Client/AccountingTask method.
// It carries the failing Kind plus whatever payload that kind defines.
type Error struct {
	Kind ErrorKind
	Err  error // wrapped cause, for ErrIO/ErrSerialize/ErrInvalidPacketReceived/ErrInvalidArgument

	// ErrSequenceNumberMismatchKind
	ExpectedSequence uint8
	ActualSequence   uint8

	// ErrAuthentication
	AuthenticationStatus wire.AuthenticationStatus
	AuthenticationData   []byte
	UserMessage          string

	// ErrAuthorization / ErrAccounting
	AuthorizationStatus wire.AuthorizationStatus
	AccountingStatus    wire.AccountingStatus
	AdminMessage        string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrIO:
		return fmt.Sprintf("tacacs: i/o error: %v", e.Err)
	case ErrSerialize:
		return fmt.Sprintf("tacacs: serialize error: %v", e.Err)
	case ErrInvalidPacketReceived:
		return fmt.Sprintf("tacacs: invalid packet received: %v", e.Err)
	case ErrInvalidPacketData:
		return "tacacs: invalid packet data"
	case ErrPasswordTooLong:
		return "tacacs: password too long to encode"
	case ErrTooManyArguments:
		return "tacacs: too many arguments"
	case ErrInvalidArgument:
		return fmt.Sprintf("tacacs: invalid argument: %v", e.Err)
	case ErrInvalidContext:
		return "tacacs: invalid session context"
	case ErrSequenceNumberMismatchKind:
		return fmt.Sprintf("tacacs: sequence number mismatch: expected %d, got %d", e.ExpectedSequence, e.ActualSequence)
	case ErrSequenceNumberOverflowKind:
		return "tacacs: sequence number overflow"
	case ErrAuthentication:
		return fmt.Sprintf("tacacs: authentication error: status=%d message=%q", e.AuthenticationStatus, e.UserMessage)
	case ErrAuthorization:
		return fmt.Sprintf("tacacs: authorization error: status=%d message=%q", e.AuthorizationStatus, e.UserMessage)
	case ErrAccounting:
		return fmt.Sprintf("tacacs: accounting error: status=%d message=%q", e.AccountingStatus, e.UserMessage)
	case ErrClock:
		return "tacacs: system clock is before the Unix epoch"
	default:
		return "tacacs: client error"
	}
}

func errIO(err error) error                 { return &Error{Kind: ErrIO, Err: err} }
func errSerialize(err error) error          { return &Error{Kind: ErrSerialize, Err: err} }
func errInvalidPacketReceived(err error) error {
	return &Error{Kind: ErrInvalidPacketReceived, Err: err}
}
func errInvalidPacketData() error { return &Error{Kind: ErrInvalidPacketData} }
func errPasswordTooLong() error   { return &Error{Kind: ErrPasswordTooLong} }
func errTooManyArguments() error  { return &Error{Kind: ErrTooManyArguments} }
func errInvalidArgument(err error) error {
	return &Error{Kind: ErrInvalidArgument, Err: err}
}
func errInvalidContext() error { return &Error{Kind: ErrInvalidContext} }
func errSequenceNumberMismatch(expected, actual uint8) error {
	return &Error{Kind: ErrSequenceNumberMismatchKind, ExpectedSequence: expected, ActualSequence: actual}
}
func errSequenceNumberOverflow() error { return &Error{Kind: ErrSequenceNumberOverflowKind} }
func errClock() error                  { return &Error{Kind: ErrClock} }

func errAuthentication(status wire.AuthenticationStatus, data []byte, userMessage string) error {
	return &Error{Kind: ErrAuthentication, AuthenticationStatus: status, AuthenticationData: data, UserMessage: userMessage}
}

func errAuthorization(status wire.AuthorizationStatus, userMessage, adminMessage string) error {
	return &Error{Kind: ErrAuthorization, AuthorizationStatus: status, UserMessage: userMessage, AdminMessage: adminMessage}
}

func errAccounting(status wire.AccountingStatus, userMessage, adminMessage string) error {
	return &Error{Kind: ErrAccounting, AccountingStatus: status, UserMessage: userMessage, AdminMessage: adminMessage}
}
