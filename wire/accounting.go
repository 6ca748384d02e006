package wire

import "encoding/binary"

// accountingRawFlags are the raw wire bits backing AccountingFlags.
type accountingRawFlags uint8

const (
	accountingRawStart    accountingRawFlags = 0b00000010
	accountingRawStop     accountingRawFlags = 0b00000100
	accountingRawWatchdog accountingRawFlags = 0b00001000
)

// AccountingFlags are the valid flag combinations for an accounting
// request. A value other than these four constants serializes as raw
// flags 0.
type AccountingFlags uint8

const (
	AccountingFlagsStartRecord AccountingFlags = iota
	AccountingFlagsStopRecord
	AccountingFlagsWatchdogNoUpdate
	AccountingFlagsWatchdogUpdate
)

func (f AccountingFlags) raw() accountingRawFlags {
	switch f {
	case AccountingFlagsStartRecord:
		return accountingRawStart
	case AccountingFlagsStopRecord:
		return accountingRawStop
	case AccountingFlagsWatchdogNoUpdate:
		return accountingRawWatchdog
	case AccountingFlagsWatchdogUpdate:
		return accountingRawWatchdog | accountingRawStart
	default:
		return 0
	}
}

const accountingFlagsWireSize = 1

// AccountingStatus is the status returned by a TACACS+ server in an
// accounting reply.
type AccountingStatus uint8

const (
	AccountingStatusSuccess AccountingStatus = 0x01
	AccountingStatusError   AccountingStatus = 0x02
	// AccountingStatusFollow is deprecated by RFC 8907.
	AccountingStatusFollow AccountingStatus = 0x21
)

const accountingStatusWireSize = 1

func accountingStatusFromByte(b uint8) (AccountingStatus, error) {
	switch AccountingStatus(b) {
	case AccountingStatusSuccess, AccountingStatusError, AccountingStatusFollow:
		return AccountingStatus(b), nil
	default:
		return 0, errInvalidStatus(b)
	}
}

// AccountingRequest starts, updates, or stops an accounting record.
type AccountingRequest struct {
	Flags                AccountingFlags
	AuthenticationMethod AuthenticationMethod
	Authentication       AuthenticationContext
	UserInformation      UserInformation
	Arguments            Arguments
}

func (AccountingRequest) PacketType() PacketType { return PacketTypeAccounting }
func (AccountingRequest) isBody()                {}

const accountingArgumentLengthsOffset = 9
const accountingRequestRequiredFieldsLength = accountingFlagsWireSize + authenticationMethodWireSize + authenticationContextWireSize + 4

// WireSize returns the number of bytes this body occupies on the wire.
func (r AccountingRequest) WireSize() int {
	return accountingFlagsWireSize + authenticationMethodWireSize + authenticationContextWireSize + r.UserInformation.wireSize() + r.Arguments.wireSize()
}

// SerializeInto encodes the body into buf.
func (r AccountingRequest) SerializeInto(buf []byte) (int, error) {
	wireSize := r.WireSize()
	if len(buf) < wireSize {
		return 0, errNotEnoughSpace()
	}

	buf[0] = uint8(r.Flags.raw())
	buf[1] = uint8(r.AuthenticationMethod)
	r.Authentication.serialize(buf[2:5])
	if err := r.UserInformation.serializeFieldLengths(buf[5:8]); err != nil {
		return 0, err
	}

	argumentCount := r.Arguments.argumentCount()
	bodyStart := accountingArgumentLengthsOffset + argumentCount

	userInfoLen, err := r.UserInformation.serializeFieldValues(buf[bodyStart:wireSize])
	if err != nil {
		return 0, err
	}

	if err := r.Arguments.serializeCountAndLengths(buf[8 : 8+argumentCount+1]); err != nil {
		return 0, err
	}
	argsLen, err := r.Arguments.serializeEncodedValues(buf[bodyStart+userInfoLen : wireSize])
	if err != nil {
		return 0, err
	}

	written := accountingRequestRequiredFieldsLength + argumentCount + userInfoLen + argsLen
	if written != wireSize {
		return 0, errLengthMismatch(wireSize, written)
	}
	return written, nil
}

// AccountingReply is a reply received from a server during accounting.
type AccountingReply struct {
	Status        AccountingStatus
	ServerMessage FieldText
	Data          FieldText
}

func (AccountingReply) PacketType() PacketType { return PacketTypeAccounting }
func (AccountingReply) isBody()                {}

const accountingReplyRequiredFieldsLength = 4 + accountingStatusWireSize
const accountingReplyServerMessageOffset = 5

type accountingReplyFieldLengths struct {
	serverMessageLength uint16
	dataLength          uint16
	totalLength         uint32
}

func extractAccountingReplyFieldLengths(buf []byte) (accountingReplyFieldLengths, error) {
	if len(buf) < accountingReplyRequiredFieldsLength {
		return accountingReplyFieldLengths{}, errUnexpectedEnd()
	}
	serverMessageLength := binary.BigEndian.Uint16(buf[:2])
	dataLength := binary.BigEndian.Uint16(buf[2:4])
	total := uint32(accountingReplyRequiredFieldsLength) + uint32(serverMessageLength) + uint32(dataLength)
	return accountingReplyFieldLengths{
		serverMessageLength: serverMessageLength,
		dataLength:          dataLength,
		totalLength:         total,
	}, nil
}

// ExtractAccountingReplyTotalLength returns the total body length claimed
// by a serialized accounting reply buffer, without fully parsing it.
func ExtractAccountingReplyTotalLength(buf []byte) (uint32, error) {
	lengths, err := extractAccountingReplyFieldLengths(buf)
	if err != nil {
		return 0, err
	}
	return lengths.totalLength, nil
}

func deserializeAccountingReply(buf []byte) (AccountingReply, error) {
	lengths, err := extractAccountingReplyFieldLengths(buf)
	if err != nil {
		return AccountingReply{}, err
	}
	if int(lengths.totalLength) != len(buf) {
		return AccountingReply{}, errWrongBodyBufferSize(int(lengths.totalLength), len(buf))
	}

	status, err := accountingStatusFromByte(buf[4])
	if err != nil {
		return AccountingReply{}, err
	}

	dataOffset := accountingReplyServerMessageOffset + int(lengths.serverMessageLength)
	serverMessage, err := NewFieldTextFromBytes(buf[accountingReplyServerMessageOffset:dataOffset])
	if err != nil {
		return AccountingReply{}, errBadText()
	}
	data, err := NewFieldTextFromBytes(buf[dataOffset : dataOffset+int(lengths.dataLength)])
	if err != nil {
		return AccountingReply{}, errBadText()
	}

	return AccountingReply{Status: status, ServerMessage: serverMessage, Data: data}, nil
}
