package wire

import "encoding/binary"

// AuthorizationStatus is the status returned by a TACACS+ server in an
// authorization reply.
type AuthorizationStatus uint8

const (
	AuthorizationStatusPassAdd     AuthorizationStatus = 0x01
	AuthorizationStatusPassReplace AuthorizationStatus = 0x02
	AuthorizationStatusFail        AuthorizationStatus = 0x10
	AuthorizationStatusError       AuthorizationStatus = 0x11
	// AuthorizationStatusFollow is deprecated by RFC 8907.
	AuthorizationStatusFollow AuthorizationStatus = 0x21
)

const authorizationStatusWireSize = 1

func authorizationStatusFromByte(b uint8) (AuthorizationStatus, error) {
	switch AuthorizationStatus(b) {
	case AuthorizationStatusPassAdd, AuthorizationStatusPassReplace, AuthorizationStatusFail,
		AuthorizationStatusError, AuthorizationStatusFollow:
		return AuthorizationStatus(b), nil
	default:
		return 0, errInvalidStatus(b)
	}
}

// AuthorizationRequest requests an authorization decision from the server.
type AuthorizationRequest struct {
	Method          AuthenticationMethod
	Authentication  AuthenticationContext
	UserInformation UserInformation
	Arguments       Arguments
}

func (AuthorizationRequest) PacketType() PacketType { return PacketTypeAuthorization }
func (AuthorizationRequest) isBody()                {}

// authorizationArgumentLengthsOffset is where per-argument length bytes begin in a
// serialized authorization request body.
const authorizationArgumentLengthsOffset = 8

const authorizationRequestRequiredFieldsLength = authenticationMethodWireSize + authenticationContextWireSize + 4

// WireSize returns the number of bytes this body occupies on the wire.
func (r AuthorizationRequest) WireSize() int {
	return authenticationMethodWireSize + authenticationContextWireSize + r.UserInformation.wireSize() + r.Arguments.wireSize()
}

// SerializeInto encodes the body into buf.
func (r AuthorizationRequest) SerializeInto(buf []byte) (int, error) {
	wireSize := r.WireSize()
	if len(buf) < wireSize {
		return 0, errNotEnoughSpace()
	}

	buf[0] = uint8(r.Method)
	r.Authentication.serialize(buf[1:4])
	if err := r.UserInformation.serializeFieldLengths(buf[4:7]); err != nil {
		return 0, err
	}

	argumentCount := r.Arguments.argumentCount()
	bodyStart := authorizationRequestRequiredFieldsLength + argumentCount

	userInfoLen, err := r.UserInformation.serializeFieldValues(buf[bodyStart:wireSize])
	if err != nil {
		return 0, err
	}

	if err := r.Arguments.serializeCountAndLengths(buf[7 : 7+argumentCount+1]); err != nil {
		return 0, err
	}
	argsLen, err := r.Arguments.serializeEncodedValues(buf[bodyStart+userInfoLen : wireSize])
	if err != nil {
		return 0, err
	}

	written := authorizationRequestRequiredFieldsLength + argumentCount + userInfoLen + argsLen
	if written != wireSize {
		return 0, errLengthMismatch(wireSize, written)
	}
	return written, nil
}

// AuthorizationReply is a reply received from a server during authorization.
type AuthorizationReply struct {
	Status        AuthorizationStatus
	Arguments     Arguments
	ServerMessage FieldText
	Data          FieldText
}

func (AuthorizationReply) PacketType() PacketType { return PacketTypeAuthorization }
func (AuthorizationReply) isBody()                {}

const authorizationReplyRequiredFieldsLength = authorizationStatusWireSize + 1 + 4
const authorizationReplyArgumentLengthsOffset = 6

type authorizationReplyFieldLengths struct {
	argumentCount       int
	serverMessageLength uint16
	dataLength          uint16
	totalLength         uint32
}

func extractAuthorizationReplyFieldLengths(buf []byte) (authorizationReplyFieldLengths, error) {
	if len(buf) < authorizationReplyRequiredFieldsLength {
		return authorizationReplyFieldLengths{}, errUnexpectedEnd()
	}
	argumentCount := int(buf[1])
	if len(buf) < authorizationReplyArgumentLengthsOffset+argumentCount {
		return authorizationReplyFieldLengths{}, errUnexpectedEnd()
	}
	serverMessageLength := binary.BigEndian.Uint16(buf[2:4])
	dataLength := binary.BigEndian.Uint16(buf[4:6])

	argLengthsSum := 0
	for _, l := range buf[authorizationReplyArgumentLengthsOffset : authorizationReplyArgumentLengthsOffset+argumentCount] {
		argLengthsSum += int(l)
	}

	total := uint32(authorizationReplyArgumentLengthsOffset) + uint32(argumentCount) + uint32(serverMessageLength) + uint32(dataLength) + uint32(argLengthsSum)

	return authorizationReplyFieldLengths{
		argumentCount:       argumentCount,
		serverMessageLength: serverMessageLength,
		dataLength:          dataLength,
		totalLength:         total,
	}, nil
}

// ExtractAuthorizationReplyTotalLength returns the total body length
// claimed by a serialized authorization reply buffer, without fully
// parsing it.
func ExtractAuthorizationReplyTotalLength(buf []byte) (uint32, error) {
	lengths, err := extractAuthorizationReplyFieldLengths(buf)
	if err != nil {
		return 0, err
	}
	return lengths.totalLength, nil
}

func deserializeAuthorizationReply(buf []byte) (AuthorizationReply, error) {
	lengths, err := extractAuthorizationReplyFieldLengths(buf)
	if err != nil {
		return AuthorizationReply{}, err
	}
	if int(lengths.totalLength) != len(buf) {
		return AuthorizationReply{}, errWrongBodyBufferSize(int(lengths.totalLength), len(buf))
	}

	status, err := authorizationStatusFromByte(buf[0])
	if err != nil {
		return AuthorizationReply{}, err
	}

	argLengthsStart := authorizationReplyArgumentLengthsOffset
	bodyStart := argLengthsStart + lengths.argumentCount
	dataStart := bodyStart + int(lengths.serverMessageLength)
	argumentsStart := dataStart + int(lengths.dataLength)

	serverMessage, err := NewFieldTextFromBytes(buf[bodyStart:dataStart])
	if err != nil {
		return AuthorizationReply{}, errBadText()
	}
	data, err := NewFieldTextFromBytes(buf[dataStart:argumentsStart])
	if err != nil {
		return AuthorizationReply{}, errBadText()
	}

	args, err := deserializeArguments(lengths.argumentCount, buf[argLengthsStart:bodyStart], buf[argumentsStart:])
	if err != nil {
		return AuthorizationReply{}, err
	}

	return AuthorizationReply{
		Status:        status,
		Arguments:     args,
		ServerMessage: serverMessage,
		Data:          data,
	}, nil
}

// MergeArguments implements the client-side authorization argument merge
// policy (RFC 8907 / spec §4.5): PassAdd appends received to sent;
// PassReplace overwrites identically-named sent entries with the
// received value, appending any received entry with no matching name.
// Duplicate-named entries match on first occurrence only.
func MergeArguments(status AuthorizationStatus, sent, received Arguments) Arguments {
	switch status {
	case AuthorizationStatusPassAdd:
		merged := make(Arguments, 0, len(sent)+len(received))
		merged = append(merged, sent...)
		merged = append(merged, received...)
		return merged
	case AuthorizationStatusPassReplace:
		merged := make(Arguments, len(sent))
		copy(merged, sent)
		for _, r := range received {
			replaced := false
			for i, s := range merged {
				if s.Name.String() == r.Name.String() {
					merged[i] = r
					replaced = true
					break
				}
			}
			if !replaced {
				merged = append(merged, r)
			}
		}
		return merged
	default:
		return sent
	}
}
