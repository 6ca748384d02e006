package wire

import (
	"crypto/md5"
	"encoding/binary"
)

// obfuscate XORs body in place with the RFC 8907 §4.5 pseudo-pad derived
// from sessionID, secret, version, and sequenceNumber. The operation is
// its own inverse. body must not include the 12-byte header.
func obfuscate(body []byte, sessionID uint32, secret []byte, version uint8, sequenceNumber uint8) {
	seed := make([]byte, 4+len(secret)+2)
	binary.BigEndian.PutUint32(seed[:4], sessionID)
	n := copy(seed[4:], secret)
	seed[4+n] = version
	seed[4+n+1] = sequenceNumber

	var sum []byte
	h := md5.New()
	remaining := body
	for len(remaining) > 0 {
		h.Reset()
		h.Write(seed)
		h.Write(sum)
		sum = h.Sum(nil)
		if len(remaining) < len(sum) {
			sum = sum[:len(remaining)]
		}
		for i, c := range sum {
			remaining[i] ^= c
		}
		remaining = remaining[len(sum):]
	}
}
