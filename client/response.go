package client

import "github.com/tacplusgo/tacacs-plus-go/wire"

// ResponseStatus is the client-facing simplification of a body-level
// status: every non-error status collapses to Success or Failure.
type ResponseStatus int

const (
	ResponseSuccess ResponseStatus = iota
	ResponseFailure
)

// responseStatusFromAuthentication maps an authentication status to the
// public ResponseStatus, or reports that the status is a protocol-level
// error the caller must handle as such.
func responseStatusFromAuthentication(status wire.AuthenticationStatus) (ResponseStatus, bool) {
	switch status {
	case wire.AuthenticationStatusPass:
		return ResponseSuccess, true
	case wire.AuthenticationStatusFail, wire.AuthenticationStatusRestart, wire.AuthenticationStatusFollow:
		return ResponseFailure, true
	default:
		return 0, false
	}
}

func responseStatusFromAuthorization(status wire.AuthorizationStatus) (ResponseStatus, bool) {
	switch status {
	case wire.AuthorizationStatusPassAdd, wire.AuthorizationStatusPassReplace:
		return ResponseSuccess, true
	case wire.AuthorizationStatusFail, wire.AuthorizationStatusFollow:
		return ResponseFailure, true
	default:
		return 0, false
	}
}

func responseStatusFromAccounting(status wire.AccountingStatus) (ResponseStatus, bool) {
	switch status {
	case wire.AccountingStatusSuccess:
		return ResponseSuccess, true
	default:
		return 0, false
	}
}

// AuthenticationResponse is returned by Client.Authenticate on success.
type AuthenticationResponse struct {
	Status        ResponseStatus
	ServerMessage string
	Data          []byte
}

// AuthorizationResponse is returned by Client.Authorize on success. The
// Arguments set has already been merged per RFC 8907 (see
// wire.MergeArguments).
type AuthorizationResponse struct {
	Status        ResponseStatus
	Arguments     wire.Arguments
	ServerMessage string
	AdminMessage  string
}

// AccountingResponse is returned by AccountingTask's Start/Update/Stop
// methods on success.
type AccountingResponse struct {
	ServerMessage string
	AdminMessage  string
}
