package wire

// Packet couples a header with its body. NewPacket sets the header's Type
// from the body, and the body's wire length is computed at serialization
// time; SequenceNumber, Flags, SessionID and Version.Minor are supplied by
// the caller (NewPacket overrides the latter to the body's required minor
// version, if it has one).
type Packet struct {
	Header HeaderInfo
	Body   Serializable
}

// NewPacket builds a packet, coupling the header's minor version to the
// body's requirement when the body type specifies one (testable property
// 6: "version coupling").
func NewPacket(header HeaderInfo, body Serializable) Packet {
	if requirer, ok := body.(minorVersionRequirer); ok {
		if minor, has := requirer.RequiredMinorVersion(); has {
			header.Version.Minor = minor
		}
	}
	header.Type = body.PacketType()
	return Packet{Header: header, Body: body}
}

// Serialize encodes p into buf (header followed by body), obfuscating the
// body with the pseudo-pad derived from secret when secret is non-nil. If
// secret is nil the UNENCRYPTED flag is set and the body is left in the
// clear; otherwise UNENCRYPTED is cleared and the body is XORed in place.
// Returns the total number of bytes written.
func Serialize(p Packet, secret []byte, buf []byte) (int, error) {
	bodyWireSize := p.Body.WireSize()
	totalSize := HeaderSize + bodyWireSize
	if len(buf) < totalSize {
		return 0, errNotEnoughSpace()
	}

	flags := p.Header.Flags
	if secret != nil {
		flags &^= FlagUnencrypted
	} else {
		flags |= FlagUnencrypted
	}
	header := p.Header
	header.Flags = flags

	bodyBuf := buf[HeaderSize:totalSize]
	written, err := p.Body.SerializeInto(bodyBuf)
	if err != nil {
		return 0, err
	}
	if written != bodyWireSize {
		return 0, errLengthMismatch(bodyWireSize, written)
	}

	if secret != nil {
		obfuscate(bodyBuf, header.SessionID, secret, header.Version.Byte(), header.SequenceNumber)
	}

	if err := header.serialize(buf, uint32(bodyWireSize)); err != nil {
		return 0, err
	}

	return totalSize, nil
}

// DeserializeHeader parses just the 12-byte header out of buf, returning
// the header and the body length it claims. Callers use the body length
// to know how many more bytes to read before calling DeserializeBody.
func DeserializeHeader(buf []byte) (HeaderInfo, uint32, error) {
	return headerFromBytes(buf)
}

// DeserializeBody un-obfuscates (if secret is non-nil) and parses the
// body region of a packet, given the header already parsed from the same
// packet's first 12 bytes and bodyBuf containing exactly bodyLength
// bytes following the header. expectedType is validated against the
// header's declared packet type.
func DeserializeBody(header HeaderInfo, expectedType PacketType, secret []byte, bodyBuf []byte) (Body, error) {
	if header.Type != expectedType {
		return nil, errPacketTypeMismatch(expectedType, header.Type)
	}

	hasSecret := secret != nil
	isUnencrypted := header.Flags.Has(FlagUnencrypted)
	if hasSecret == isUnencrypted {
		return nil, errIncorrectUnencryptedFlag()
	}

	if hasSecret {
		obfuscate(bodyBuf, header.SessionID, secret, header.Version.Byte(), header.SequenceNumber)
	}

	switch header.Type {
	case PacketTypeAuthentication:
		return deserializeAuthenticationBody(bodyBuf)
	case PacketTypeAuthorization:
		return deserializeAuthorizationBody(bodyBuf)
	case PacketTypeAccounting:
		return deserializeAccountingBody(bodyBuf)
	default:
		return nil, errInvalidPacketType(uint8(header.Type))
	}
}

// deserializeAuthenticationBody parses an authentication Reply body (the
// only authentication body variant a client ever receives).
func deserializeAuthenticationBody(buf []byte) (Body, error) {
	reply, err := deserializeAuthenticationReply(buf)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func deserializeAuthorizationBody(buf []byte) (Body, error) {
	reply, err := deserializeAuthorizationReply(buf)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func deserializeAccountingBody(buf []byte) (Body, error) {
	reply, err := deserializeAccountingReply(buf)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// ExtractBodyLength returns the body length a reply of packetType claims
// in its own length fields, reading only as many leading bytes of buf as
// required. The length fields are obfuscated along with the rest of the
// body, so buf must already be un-obfuscated. DeserializeBody performs the
// same self-reported-length check against its buffer on its own.
func ExtractBodyLength(packetType PacketType, buf []byte) (uint32, error) {
	switch packetType {
	case PacketTypeAuthentication:
		return ExtractAuthenticationReplyTotalLength(buf)
	case PacketTypeAuthorization:
		return ExtractAuthorizationReplyTotalLength(buf)
	case PacketTypeAccounting:
		return ExtractAccountingReplyTotalLength(buf)
	default:
		return 0, errInvalidPacketType(uint8(packetType))
	}
}
