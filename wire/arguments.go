package wire

import "bytes"

const (
	mandatoryDelimiter = '='
	optionalDelimiter  = '*'
)

// Argument is a name/value/mandatoriness attribute-value pair as carried
// in authorization and accounting bodies.
type Argument struct {
	Name      FieldText
	Value     FieldText
	Mandatory bool
}

// NewArgument validates and constructs an Argument. name must be
// non-empty, contain neither '=' nor '*', and the combined encoded
// length (name + delimiter + value) must fit in a single wire length
// byte (<=255).
func NewArgument(name, value FieldText, mandatory bool) (Argument, error) {
	if name.IsEmpty() {
		return Argument{}, &InvalidArgument{Kind: EmptyName}
	}
	if name.ContainsAny("=*") {
		return Argument{}, &InvalidArgument{Kind: NameContainsDelimiter}
	}
	if name.Len()+1+value.Len() > 0xFF {
		return Argument{}, &InvalidArgument{Kind: TooLong}
	}
	return Argument{Name: name, Value: value, Mandatory: mandatory}, nil
}

// delimiter returns the wire delimiter byte for this argument.
func (a Argument) delimiter() byte {
	if a.Mandatory {
		return mandatoryDelimiter
	}
	return optionalDelimiter
}

// encodedLength is the number of bytes this argument occupies on the wire.
func (a Argument) encodedLength() int {
	return a.Name.Len() + 1 + a.Value.Len()
}

func (a Argument) String() string {
	return a.Name.String() + string(a.delimiter()) + a.Value.String()
}

func (a Argument) serialize(buf []byte) (int, error) {
	n := a.encodedLength()
	if len(buf) < n {
		return 0, errNotEnoughSpace()
	}
	w := copy(buf, a.Name.Bytes())
	buf[w] = a.delimiter()
	w++
	w += copy(buf[w:], a.Value.Bytes())
	return w, nil
}

// deserializeArgument decodes a single encoded argument value, splitting
// on the first occurrence of '=' or '*' (whichever comes first; names
// cannot contain either).
func deserializeArgument(buf []byte) (Argument, error) {
	eq := bytes.IndexByte(buf, mandatoryDelimiter)
	star := bytes.IndexByte(buf, optionalDelimiter)

	delimIdx := -1
	switch {
	case eq == -1 && star == -1:
		return Argument{}, &InvalidArgument{Kind: NoDelimiter}
	case eq == -1:
		delimIdx = star
	case star == -1:
		delimIdx = eq
	case eq < star:
		delimIdx = eq
	default:
		delimIdx = star
	}

	mandatory := buf[delimIdx] == mandatoryDelimiter

	name, err := NewFieldTextFromBytes(buf[:delimIdx])
	if err != nil {
		return Argument{}, &InvalidArgument{Kind: BadArgumentText}
	}
	value, err := NewFieldTextFromBytes(buf[delimIdx+1:])
	if err != nil {
		return Argument{}, &InvalidArgument{Kind: BadArgumentText}
	}

	return NewArgument(name, value, mandatory)
}

// Arguments is a bounded ordered sequence of Argument, size <=255.
type Arguments []Argument

// NewArguments validates that args fits within a single wire count byte.
func NewArguments(args []Argument) (Arguments, error) {
	if len(args) > 0xFF {
		return nil, errLengthOverflow()
	}
	return Arguments(args), nil
}

func (a Arguments) argumentCount() int { return len(a) }

// wireSize is the total number of bytes this argument set occupies,
// including the leading count byte and the per-argument length bytes.
func (a Arguments) wireSize() int {
	total := 1 + len(a)
	for _, arg := range a {
		total += arg.encodedLength()
	}
	return total
}

// serializeCountAndLengths writes the count byte followed by one length
// byte per argument.
func (a Arguments) serializeCountAndLengths(buf []byte) error {
	if len(buf) < 1+len(a) {
		return errNotEnoughSpace()
	}
	buf[0] = uint8(len(a))
	for i, arg := range a {
		buf[1+i] = uint8(arg.encodedLength())
	}
	return nil
}

// serializeEncodedValues writes each argument's encoded bytes contiguously.
func (a Arguments) serializeEncodedValues(buf []byte) (int, error) {
	total := 0
	for _, arg := range a {
		n, err := arg.serialize(buf[total:])
		if err != nil {
			return 0, err
		}
		total += n
	}
	expected := 0
	for _, arg := range a {
		expected += arg.encodedLength()
	}
	if total != expected {
		return 0, errLengthMismatch(expected, total)
	}
	return total, nil
}

// deserializeArguments decodes count arguments whose per-argument lengths
// are given by lengths, reading their encoded values out of buf in order.
func deserializeArguments(count int, lengths []byte, buf []byte) (Arguments, error) {
	args := make(Arguments, 0, count)
	offset := 0
	for i := 0; i < count; i++ {
		length := int(lengths[i])
		if offset+length > len(buf) {
			return nil, errUnexpectedEnd()
		}
		arg, err := deserializeArgument(buf[offset : offset+length])
		if err != nil {
			return nil, &DeserializeError{Kind: InvalidArgumentField, ArgumentDetail: err}
		}
		args = append(args, arg)
		offset += length
	}
	return args, nil
}
