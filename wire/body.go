package wire

// Body is implemented by exactly the seven TACACS+ packet body variants
// this module's client constructs or receives: authentication
// Start/Continue/Reply, authorization Request/Reply, and accounting
// Request/Reply. The set is closed — isBody is unexported so no type
// outside this package can satisfy the interface.
type Body interface {
	PacketType() PacketType
	isBody()
}

// Serializable is implemented by the body variants a client sends:
// Start, Continue, and the authorization/accounting Request bodies.
// Reply bodies are only ever decoded, never encoded, by this client.
type Serializable interface {
	Body
	WireSize() int
	SerializeInto(buf []byte) (int, error)
}

// minorVersionRequirer is implemented by body variants whose wire
// encoding depends on a specific header minor version (currently only
// authentication Start).
type minorVersionRequirer interface {
	RequiredMinorVersion() (MinorVersion, bool)
}
