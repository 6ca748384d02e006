// Package wire implements the TACACS+ (RFC 8907) packet codec: field
// primitives, arguments, the fixed header, the seven body variants, the
// MD5 pseudo-pad obfuscation scheme, and packet assembly.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldText is an immutable, validated printable-ASCII string as carried
// by TACACS+ port, remote-address, server-message, and data fields.
// Bytes must fall in the range 0x20-0x7E; no control characters.
type FieldText struct {
	s string
}

// NewFieldText validates s and wraps it as a FieldText.
func NewFieldText(s string) (FieldText, error) {
	if !isPrintableASCII(s) {
		return FieldText{}, fmt.Errorf("wire: field text contains non-printable byte")
	}
	return FieldText{s: s}, nil
}

// NewFieldTextFromBytes validates and wraps raw bytes as a FieldText.
func NewFieldTextFromBytes(b []byte) (FieldText, error) {
	return NewFieldText(string(b))
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// Len returns the number of bytes in the field.
func (f FieldText) Len() int { return len(f.s) }

// IsEmpty reports whether the field is empty.
func (f FieldText) IsEmpty() bool { return len(f.s) == 0 }

// Bytes returns the field's byte representation.
func (f FieldText) Bytes() []byte { return []byte(f.s) }

// String returns the field's string representation.
func (f FieldText) String() string { return f.s }

// ContainsAny reports whether any byte of chars appears in the field.
func (f FieldText) ContainsAny(chars string) bool {
	return strings.ContainsAny(f.s, chars)
}

// EscapeLossy renders the field as a Go-style escaped string, replacing
// any byte outside the printable-ASCII range with a \xNN escape. Intended
// for diagnostics over data that did not pass FieldText validation (e.g.
// the opaque authentication "data" field), never for wire output.
func EscapeLossy(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c <= 0x7E && c != '\\' {
			sb.WriteByte(c)
		} else {
			sb.WriteString("\\x")
			if c < 0x10 {
				sb.WriteByte('0')
			}
			sb.WriteString(strconv.FormatUint(uint64(c), 16))
		}
	}
	return sb.String()
}
