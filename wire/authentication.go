package wire

import "encoding/binary"

// Action is the authentication action indicated when initiating an
// authentication session.
type Action uint8

const (
	ActionLogin          Action = 0x01
	ActionChangePassword Action = 0x02
	// ActionSendAuth is deprecated by RFC 8907 due to its security
	// implications; retained for completeness, not recommended for use.
	ActionSendAuth Action = 0x04
)

const actionWireSize = 1

// AuthenticationStatus is the status returned by a TACACS+ server in an
// authentication reply.
type AuthenticationStatus uint8

const (
	AuthenticationStatusPass        AuthenticationStatus = 0x01
	AuthenticationStatusFail        AuthenticationStatus = 0x02
	AuthenticationStatusGetData     AuthenticationStatus = 0x03
	AuthenticationStatusGetUser     AuthenticationStatus = 0x04
	AuthenticationStatusGetPassword AuthenticationStatus = 0x05
	AuthenticationStatusRestart     AuthenticationStatus = 0x06
	AuthenticationStatusError       AuthenticationStatus = 0x07
	// AuthenticationStatusFollow is deprecated by RFC 8907.
	AuthenticationStatusFollow AuthenticationStatus = 0x21
)

const authenticationStatusWireSize = 1

func authenticationStatusFromByte(b uint8) (AuthenticationStatus, error) {
	switch AuthenticationStatus(b) {
	case AuthenticationStatusPass, AuthenticationStatusFail, AuthenticationStatusGetData,
		AuthenticationStatusGetUser, AuthenticationStatusGetPassword, AuthenticationStatusRestart,
		AuthenticationStatusError, AuthenticationStatusFollow:
		return AuthenticationStatus(b), nil
	default:
		return 0, errInvalidStatus(b)
	}
}

// actionAndTypeCompatible implements RFC 8907 Table 1: ASCII pairs only
// with Login/ChangePassword; ChangePassword is valid only with ASCII;
// every other type may pair with Login (and, deprecated, SendAuth).
func actionAndTypeCompatible(authType AuthenticationType, action Action) bool {
	switch {
	case authType == AuthenticationTypeASCII && (action == ActionLogin || action == ActionChangePassword):
		return true
	case authType == AuthenticationTypeASCII && action == ActionSendAuth:
		return false
	case action == ActionChangePassword:
		return false
	default:
		return true
	}
}

// AuthenticationStart initiates an authentication session.
type AuthenticationStart struct {
	Action          Action
	Authentication  AuthenticationContext
	UserInformation UserInformation
	Data            []byte
}

// BadStartKind enumerates the ways constructing an AuthenticationStart
// body can fail.
type BadStartKind int

const (
	// DataTooLong means the data field was too long to encode.
	DataTooLong BadStartKind = iota
	// AuthTypeNotSet means the authentication type was NotSet, which is
	// invalid for authentication packets.
	AuthTypeNotSet
	// IncompatibleActionAndType means the action and authentication type
	// are not a legal combination per RFC 8907 Table 1.
	IncompatibleActionAndType
)

// BadStart reports why an AuthenticationStart body could not be
// constructed.
type BadStart struct {
	Kind BadStartKind
}

func (e *BadStart) Error() string {
	switch e.Kind {
	case DataTooLong:
		return "wire: data field too long to encode in a single byte"
	case AuthTypeNotSet:
		return "wire: authentication type must be set for authentication packets"
	case IncompatibleActionAndType:
		return "wire: authentication action and type are incompatible"
	default:
		return "wire: invalid authentication start packet"
	}
}

// NewAuthenticationStart validates and constructs a Start body. Data, if
// present, must fit in a single wire length byte; the authentication
// type must be set and compatible with the action per RFC 8907 Table 1.
func NewAuthenticationStart(action Action, authentication AuthenticationContext, userInformation UserInformation, data []byte) (AuthenticationStart, error) {
	if len(data) > 0xFF {
		return AuthenticationStart{}, &BadStart{Kind: DataTooLong}
	}
	if authentication.Type == AuthenticationTypeNotSet {
		return AuthenticationStart{}, &BadStart{Kind: AuthTypeNotSet}
	}
	if !actionAndTypeCompatible(authentication.Type, action) {
		return AuthenticationStart{}, &BadStart{Kind: IncompatibleActionAndType}
	}
	return AuthenticationStart{
		Action:          action,
		Authentication:  authentication,
		UserInformation: userInformation,
		Data:            data,
	}, nil
}

// RequiredMinorVersion reports the minor version this Start body requires,
// derived from its authentication type.
func (s AuthenticationStart) RequiredMinorVersion() (MinorVersion, bool) {
	return s.Authentication.Type.RequiredMinorVersion()
}

func (AuthenticationStart) PacketType() PacketType { return PacketTypeAuthentication }
func (AuthenticationStart) isBody()                {}

const authenticationStartRequiredFieldsLength = actionWireSize + authenticationContextWireSize + userInformationHeaderSize + 1

// WireSize returns the number of bytes this body occupies on the wire.
func (s AuthenticationStart) WireSize() int {
	return actionWireSize + authenticationContextWireSize + s.UserInformation.wireSize() + 1 + len(s.Data)
}

// SerializeInto encodes the body into buf, returning the number of bytes
// written.
func (s AuthenticationStart) SerializeInto(buf []byte) (int, error) {
	wireSize := s.WireSize()
	if len(buf) < wireSize {
		return 0, errNotEnoughSpace()
	}

	buf[0] = uint8(s.Action)
	s.Authentication.serialize(buf[1:4])
	if err := s.UserInformation.serializeFieldLengths(buf[4:7]); err != nil {
		return 0, err
	}

	written := 8
	userInfoLen, err := s.UserInformation.serializeFieldValues(buf[8:wireSize])
	if err != nil {
		return 0, err
	}
	written += userInfoLen

	dataStart := 8 + userInfoLen
	buf[7] = uint8(len(s.Data))
	if len(s.Data) > 0 {
		copy(buf[dataStart:dataStart+len(s.Data)], s.Data)
	}
	written += len(s.Data)

	if written != wireSize {
		return 0, errLengthMismatch(wireSize, written)
	}
	return written, nil
}

// AuthenticationReplyFlags are the flags carried in an authentication reply.
type AuthenticationReplyFlags uint8

// AuthenticationReplyNoEcho indicates the client MUST NOT display user input.
const AuthenticationReplyNoEcho AuthenticationReplyFlags = 0b00000001

// Has reports whether all bits of mask are set.
func (f AuthenticationReplyFlags) Has(mask AuthenticationReplyFlags) bool { return f&mask == mask }

const authenticationReplyFlagsKnownMask = AuthenticationReplyNoEcho

// AuthenticationReply is a reply received from a server during
// authentication.
type AuthenticationReply struct {
	Status        AuthenticationStatus
	ServerMessage FieldText
	Data          []byte
	Flags         AuthenticationReplyFlags
}

func (AuthenticationReply) PacketType() PacketType { return PacketTypeAuthentication }
func (AuthenticationReply) isBody()                {}

const authenticationReplyRequiredFieldsLength = authenticationStatusWireSize + 1 + 4
const authenticationReplyServerMessageOffset = 6

type authenticationReplyFieldLengths struct {
	serverMessageLength uint16
	dataLength          uint16
	totalLength          uint32
}

func extractAuthenticationReplyFieldLengths(buf []byte) (authenticationReplyFieldLengths, error) {
	if len(buf) < authenticationReplyRequiredFieldsLength {
		return authenticationReplyFieldLengths{}, errUnexpectedEnd()
	}
	serverMessageLength := binary.BigEndian.Uint16(buf[2:4])
	dataLength := binary.BigEndian.Uint16(buf[4:6])
	total := uint32(authenticationReplyRequiredFieldsLength) + uint32(serverMessageLength) + uint32(dataLength)
	return authenticationReplyFieldLengths{
		serverMessageLength: serverMessageLength,
		dataLength:          dataLength,
		totalLength:         total,
	}, nil
}

// ExtractAuthenticationReplyTotalLength returns the total body length
// claimed by a serialized authentication reply buffer, without fully
// parsing it.
func ExtractAuthenticationReplyTotalLength(buf []byte) (uint32, error) {
	lengths, err := extractAuthenticationReplyFieldLengths(buf)
	if err != nil {
		return 0, err
	}
	return lengths.totalLength, nil
}

func deserializeAuthenticationReply(buf []byte) (AuthenticationReply, error) {
	lengths, err := extractAuthenticationReplyFieldLengths(buf)
	if err != nil {
		return AuthenticationReply{}, err
	}
	if int(lengths.totalLength) != len(buf) {
		return AuthenticationReply{}, errWrongBodyBufferSize(int(lengths.totalLength), len(buf))
	}

	status, err := authenticationStatusFromByte(buf[0])
	if err != nil {
		return AuthenticationReply{}, err
	}
	flagByte := buf[1]
	if flagByte&^uint8(authenticationReplyFlagsKnownMask) != 0 {
		return AuthenticationReply{}, errInvalidBodyFlags(flagByte)
	}

	dataBegin := authenticationReplyServerMessageOffset + int(lengths.serverMessageLength)
	serverMessage, err := NewFieldTextFromBytes(buf[authenticationReplyServerMessageOffset:dataBegin])
	if err != nil {
		return AuthenticationReply{}, errBadText()
	}
	data := buf[dataBegin : dataBegin+int(lengths.dataLength)]

	return AuthenticationReply{
		Status:        status,
		ServerMessage: serverMessage,
		Data:          data,
		Flags:         AuthenticationReplyFlags(flagByte),
	}, nil
}

// AuthenticationContinueFlags are the flags sent as part of an
// authentication continue packet.
type AuthenticationContinueFlags uint8

// AuthenticationContinueAbort indicates the client is prematurely
// aborting the authentication session.
const AuthenticationContinueAbort AuthenticationContinueFlags = 0b00000001

// AuthenticationContinue is a continue packet potentially sent as part of
// a (non-goal, multi-turn) authentication session. Retained for wire
// completeness; this module's client never emits one (see Non-goal c).
type AuthenticationContinue struct {
	UserMessage []byte
	Data        []byte
	Flags       AuthenticationContinueFlags
}

func (AuthenticationContinue) PacketType() PacketType { return PacketTypeAuthentication }
func (AuthenticationContinue) isBody()                {}

const authenticationContinueUserMessageOffset = 5
const authenticationContinueRequiredFieldsLength = 5

// NewAuthenticationContinue validates that both payloads fit in u16.
func NewAuthenticationContinue(userMessage, data []byte, flags AuthenticationContinueFlags) (AuthenticationContinue, bool) {
	if len(userMessage) > 0xFFFF || len(data) > 0xFFFF {
		return AuthenticationContinue{}, false
	}
	return AuthenticationContinue{UserMessage: userMessage, Data: data, Flags: flags}, true
}

// WireSize returns the number of bytes this body occupies on the wire.
func (c AuthenticationContinue) WireSize() int {
	return authenticationContinueRequiredFieldsLength + len(c.UserMessage) + len(c.Data)
}

// SerializeInto encodes the body into buf.
func (c AuthenticationContinue) SerializeInto(buf []byte) (int, error) {
	wireSize := c.WireSize()
	if len(buf) < wireSize {
		return 0, errNotEnoughSpace()
	}

	binary.BigEndian.PutUint16(buf[:2], uint16(len(c.UserMessage)))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(c.Data)))
	buf[4] = uint8(c.Flags)

	dataOffset := authenticationContinueUserMessageOffset + len(c.UserMessage)
	if len(c.UserMessage) > 0 {
		copy(buf[authenticationContinueUserMessageOffset:dataOffset], c.UserMessage)
	}
	if len(c.Data) > 0 {
		copy(buf[dataOffset:dataOffset+len(c.Data)], c.Data)
	}

	written := authenticationContinueRequiredFieldsLength + len(c.UserMessage) + len(c.Data)
	if written != wireSize {
		return 0, errLengthMismatch(wireSize, written)
	}
	return written, nil
}
