package wire

// MinorVersion is the TACACS+ minor version, packed into the low nibble
// of the header version byte.
type MinorVersion uint8

const (
	MinorVersionDefault MinorVersion = 0
	MinorVersionV1      MinorVersion = 1
)

// Version is the packed major/minor protocol version carried by the
// header. The only defined major version is 0x0C.
type Version struct {
	Minor MinorVersion
}

const versionMajor uint8 = 0x0C

// Byte packs the version into the single wire byte (major<<4 | minor).
func (v Version) Byte() uint8 {
	return versionMajor<<4 | uint8(v.Minor)&0x0F
}

// VersionFromByte unpacks a wire version byte, rejecting any major
// version other than 0x0C.
func VersionFromByte(b uint8) (Version, error) {
	major := b >> 4
	if major != versionMajor {
		return Version{}, errInvalidVersion(b)
	}
	return Version{Minor: MinorVersion(b & 0x0F)}, nil
}

// PacketType identifies which body family a packet carries.
type PacketType uint8

const (
	PacketTypeAuthentication PacketType = 1
	PacketTypeAuthorization  PacketType = 2
	PacketTypeAccounting     PacketType = 3
)

func (t PacketType) String() string {
	switch t {
	case PacketTypeAuthentication:
		return "Authentication"
	case PacketTypeAuthorization:
		return "Authorization"
	case PacketTypeAccounting:
		return "Accounting"
	default:
		return "Unknown"
	}
}

func packetTypeFromByte(b uint8) (PacketType, error) {
	switch PacketType(b) {
	case PacketTypeAuthentication, PacketTypeAuthorization, PacketTypeAccounting:
		return PacketType(b), nil
	default:
		return 0, errInvalidPacketType(b)
	}
}

// PacketFlags are the header-level flags. Bit 0 is UNENCRYPTED, bit 2 is
// SINGLE_CONNECTION; all other bits are reserved and must be zero.
type PacketFlags uint8

const (
	FlagUnencrypted     PacketFlags = 0b00000001
	FlagSingleConnection PacketFlags = 0b00000100

	packetFlagsKnownMask PacketFlags = FlagUnencrypted | FlagSingleConnection
)

func packetFlagsFromByte(b uint8) (PacketFlags, error) {
	if b&^uint8(packetFlagsKnownMask) != 0 {
		return 0, errInvalidHeaderFlags(b)
	}
	return PacketFlags(b), nil
}

// Has reports whether all bits of mask are set.
func (f PacketFlags) Has(mask PacketFlags) bool { return f&mask == mask }

func (f PacketFlags) bits() uint8 { return uint8(f) }

// AuthenticationMethod identifies how a client originally authenticated to
// the device, as reported in authorization/accounting requests.
type AuthenticationMethod uint8

const (
	AuthenticationMethodNotSet     AuthenticationMethod = 0x00
	AuthenticationMethodNone       AuthenticationMethod = 0x01
	AuthenticationMethodKerberos5  AuthenticationMethod = 0x02
	AuthenticationMethodLine       AuthenticationMethod = 0x03
	AuthenticationMethodEnable     AuthenticationMethod = 0x04
	AuthenticationMethodLocal      AuthenticationMethod = 0x05
	AuthenticationMethodTacacsPlus AuthenticationMethod = 0x06
	AuthenticationMethodGuest      AuthenticationMethod = 0x08
	AuthenticationMethodRadius     AuthenticationMethod = 0x10
	AuthenticationMethodKerberos4  AuthenticationMethod = 0x11
	AuthenticationMethodRCommand   AuthenticationMethod = 0x20

	authenticationMethodWireSize = 1
)

// PrivilegeLevel is an integer 0-15. Zero is the default.
type PrivilegeLevel uint8

// NewPrivilegeLevel validates level fits in the 0-15 range defined by
// RFC 8907.
func NewPrivilegeLevel(level uint8) (PrivilegeLevel, bool) {
	if level > 15 {
		return 0, false
	}
	return PrivilegeLevel(level), true
}

// AuthenticationType identifies the authentication mechanism in use.
type AuthenticationType uint8

const (
	AuthenticationTypeNotSet   AuthenticationType = 0x00
	AuthenticationTypeASCII    AuthenticationType = 0x01
	AuthenticationTypePAP      AuthenticationType = 0x02
	AuthenticationTypeCHAP     AuthenticationType = 0x03
	AuthenticationTypeMSCHAP   AuthenticationType = 0x05
	AuthenticationTypeMSCHAPv2 AuthenticationType = 0x06
)

// RequiredMinorVersion reports the minor version an authentication
// exchange using this type must carry, if any. ASCII requires the
// default minor version; every other non-NotSet type requires V1.
func (t AuthenticationType) RequiredMinorVersion() (MinorVersion, bool) {
	switch t {
	case AuthenticationTypeNotSet:
		return 0, false
	case AuthenticationTypeASCII:
		return MinorVersionDefault, true
	default:
		return MinorVersionV1, true
	}
}

// AuthenticationService identifies the service that requested authentication.
type AuthenticationService uint8

const (
	AuthenticationServiceNone     AuthenticationService = 0x00
	AuthenticationServiceLogin    AuthenticationService = 0x01
	AuthenticationServiceEnable   AuthenticationService = 0x02
	AuthenticationServicePPP      AuthenticationService = 0x03
	AuthenticationServicePT       AuthenticationService = 0x05
	AuthenticationServiceRCommand AuthenticationService = 0x06
	AuthenticationServiceX25      AuthenticationService = 0x07
	AuthenticationServiceNASI     AuthenticationService = 0x08
	AuthenticationServiceFwProxy  AuthenticationService = 0x09
)

// AuthenticationContext bundles the three one-byte fields describing an
// authentication exchange: privilege level, type, and service.
type AuthenticationContext struct {
	PrivilegeLevel PrivilegeLevel
	Type           AuthenticationType
	Service        AuthenticationService
}

const authenticationContextWireSize = 3

func (c AuthenticationContext) serialize(buf []byte) {
	buf[0] = uint8(c.PrivilegeLevel)
	buf[1] = uint8(c.Type)
	buf[2] = uint8(c.Service)
}

func authenticationContextFromBytes(buf []byte) AuthenticationContext {
	return AuthenticationContext{
		PrivilegeLevel: PrivilegeLevel(buf[0]),
		Type:           AuthenticationType(buf[1]),
		Service:        AuthenticationService(buf[2]),
	}
}

// UserInformation carries the user identity and endpoint description
// common to authentication/authorization/accounting request bodies.
type UserInformation struct {
	User          string
	Port          FieldText
	RemoteAddress FieldText
}

// userInformationHeaderSize is the number of length bytes (user, port,
// remote address) preceding the field values.
const userInformationHeaderSize = 3

// NewUserInformation validates that each of the three fields fits in a
// single wire length byte.
func NewUserInformation(user string, port, remoteAddress FieldText) (UserInformation, error) {
	if len(user) > 0xFF || port.Len() > 0xFF || remoteAddress.Len() > 0xFF {
		return UserInformation{}, errLengthOverflow()
	}
	return UserInformation{User: user, Port: port, RemoteAddress: remoteAddress}, nil
}

func (u UserInformation) wireSize() int {
	return userInformationHeaderSize + len(u.User) + u.Port.Len() + u.RemoteAddress.Len()
}

func (u UserInformation) serializeFieldLengths(buf []byte) error {
	if len(buf) < userInformationHeaderSize {
		return errNotEnoughSpace()
	}
	buf[0] = uint8(len(u.User))
	buf[1] = uint8(u.Port.Len())
	buf[2] = uint8(u.RemoteAddress.Len())
	return nil
}

func (u UserInformation) serializeFieldValues(buf []byte) (int, error) {
	total := len(u.User) + u.Port.Len() + u.RemoteAddress.Len()
	if len(buf) < total {
		return 0, errNotEnoughSpace()
	}
	n := copy(buf, u.User)
	n += copy(buf[n:], u.Port.Bytes())
	n += copy(buf[n:], u.RemoteAddress.Bytes())
	return n, nil
}

func userInformationFromParts(user, port, remoteAddress []byte) (UserInformation, error) {
	portText, err := NewFieldTextFromBytes(port)
	if err != nil {
		return UserInformation{}, errBadText()
	}
	remoteText, err := NewFieldTextFromBytes(remoteAddress)
	if err != nil {
		return UserInformation{}, errBadText()
	}
	return UserInformation{User: string(user), Port: portText, RemoteAddress: remoteText}, nil
}
