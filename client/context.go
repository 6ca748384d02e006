// Package client implements the TACACS+ client session engine: connection
// acquisition and recycling, single-connection-mode bookkeeping, sequence
// number discipline, and the PAP/CHAP authentication, authorization, and
// accounting session algorithms.
package client

import "github.com/tacplusgo/tacacs-plus-go/wire"

// SessionContext describes the user and endpoint a session is conducted
// on behalf of. Build one with NewContextBuilder.
type SessionContext struct {
	User                 string
	Port                 wire.FieldText
	RemoteAddress        wire.FieldText
	PrivilegeLevel       wire.PrivilegeLevel
	AuthenticationMethod wire.AuthenticationMethod
	hasAuthMethod        bool
}

// ContextBuilder incrementally constructs a SessionContext, defaulting
// port to "go_client" and remote address to "tacacs_plus_go" the way the
// reference client defaults to its own identifiers.
type ContextBuilder struct {
	ctx SessionContext
}

// NewContextBuilder starts a builder for the named user, applying the
// default port/remote-address/privilege-level/authentication-method.
func NewContextBuilder(user string) *ContextBuilder {
	port, _ := wire.NewFieldText("go_client")
	remote, _ := wire.NewFieldText("tacacs_plus_go")
	return &ContextBuilder{
		ctx: SessionContext{
			User:                 user,
			Port:                 port,
			RemoteAddress:        remote,
			PrivilegeLevel:       0,
			AuthenticationMethod: wire.AuthenticationMethodNotSet,
			hasAuthMethod:        false,
		},
	}
}

// Port overrides the default port identifier.
func (b *ContextBuilder) Port(port wire.FieldText) *ContextBuilder {
	b.ctx.Port = port
	return b
}

// RemoteAddress overrides the default remote address identifier.
func (b *ContextBuilder) RemoteAddress(addr wire.FieldText) *ContextBuilder {
	b.ctx.RemoteAddress = addr
	return b
}

// PrivilegeLevel overrides the default privilege level (0).
func (b *ContextBuilder) PrivilegeLevel(level wire.PrivilegeLevel) *ContextBuilder {
	b.ctx.PrivilegeLevel = level
	return b
}

// AuthMethod records how the caller originally authenticated, for use in
// authorization and accounting requests (ignored by Authenticate itself).
func (b *ContextBuilder) AuthMethod(method wire.AuthenticationMethod) *ContextBuilder {
	b.ctx.AuthenticationMethod = method
	b.ctx.hasAuthMethod = true
	return b
}

// Build finalizes the SessionContext.
func (b *ContextBuilder) Build() SessionContext {
	return b.ctx
}

// authenticationMethod returns the context's configured method, or NotSet
// if none was given (the default for authorization/accounting requests
// issued without a prior authentication exchange on this context).
func (c SessionContext) authenticationMethod() wire.AuthenticationMethod {
	if !c.hasAuthMethod {
		return wire.AuthenticationMethodNotSet
	}
	return c.AuthenticationMethod
}

func (c SessionContext) userInformation() (wire.UserInformation, error) {
	return wire.NewUserInformation(c.User, c.Port, c.RemoteAddress)
}
