package wire

import "encoding/binary"

// HeaderSize is the fixed size of a TACACS+ packet header.
const HeaderSize = 12

// HeaderInfo is the fixed 12-byte packet header shared by every TACACS+
// packet: version, type, sequence number, flags, session id, and the
// length of the body that follows.
type HeaderInfo struct {
	Version        Version
	Type           PacketType
	SequenceNumber uint8
	Flags          PacketFlags
	SessionID      uint32
}

// serialize writes the header into buf, given the already-computed body
// length. buf must be at least HeaderSize bytes.
func (h HeaderInfo) serialize(buf []byte, bodyLength uint32) error {
	if len(buf) < HeaderSize {
		return errNotEnoughSpace()
	}
	buf[0] = h.Version.Byte()
	buf[1] = uint8(h.Type)
	buf[2] = h.SequenceNumber
	buf[3] = h.Flags.bits()
	binary.BigEndian.PutUint32(buf[4:8], h.SessionID)
	binary.BigEndian.PutUint32(buf[8:12], bodyLength)
	return nil
}

// headerFromBytes parses the fixed header fields out of buf (exactly
// HeaderSize bytes) along with the trailing body length, rejecting
// unknown version, packet type, or reserved flag bits.
func headerFromBytes(buf []byte) (HeaderInfo, uint32, error) {
	if len(buf) < HeaderSize {
		return HeaderInfo{}, 0, errUnexpectedEnd()
	}
	version, err := VersionFromByte(buf[0])
	if err != nil {
		return HeaderInfo{}, 0, err
	}
	packetType, err := packetTypeFromByte(buf[1])
	if err != nil {
		return HeaderInfo{}, 0, err
	}
	flags, err := packetFlagsFromByte(buf[3])
	if err != nil {
		return HeaderInfo{}, 0, err
	}
	h := HeaderInfo{
		Version:        version,
		Type:           packetType,
		SequenceNumber: buf[2],
		Flags:          flags,
		SessionID:      binary.BigEndian.Uint32(buf[4:8]),
	}
	bodyLength := binary.BigEndian.Uint32(buf[8:12])
	return h, bodyLength, nil
}
