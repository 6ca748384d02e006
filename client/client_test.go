package client

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/tacplusgo/tacacs-plus-go/wire"
)

// Vector E: the CHAP Start.data field is always exactly 33 bytes, and its
// response is MD5(ppp_id || password || challenge).
func TestChapStartDataLengthVectorE(t *testing.T) {
	data, err := chapStartData("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 33 {
		t.Fatalf("expected 33-byte data field, got %d", len(data))
	}

	pppID := data[0]
	challenge := data[1:17]
	response := data[17:33]

	h := md5.New()
	h.Write([]byte{pppID})
	h.Write([]byte("hunter2"))
	h.Write(challenge)
	want := h.Sum(nil)

	if string(response) != string(want) {
		t.Fatalf("response mismatch: got % x, want % x", response, want)
	}
}

// rawVersionByte mirrors wire.Version.Byte for hand-crafted test fixtures
// that cannot reach the unexported wire codec from outside the package.
const rawVersionByte = 0x0C << 4

func writeHeader(w io.Writer, packetType uint8, seq uint8, flags uint8, sessionID uint32, bodyLength uint32) error {
	var buf [12]byte
	buf[0] = rawVersionByte
	buf[1] = packetType
	buf[2] = seq
	buf[3] = flags
	binary.BigEndian.PutUint32(buf[4:8], sessionID)
	binary.BigEndian.PutUint32(buf[8:12], bodyLength)
	_, err := w.Write(buf[:])
	return err
}

// authReplyBody builds an unobfuscated authentication reply body: Pass
// status, no flags, empty server message and data.
func authReplyBody() []byte {
	return []byte{uint8(wire.AuthenticationStatusPass), 0x00, 0x00, 0x00, 0x00, 0x00}
}

// fakeServer answers one or more authentication sessions over conn,
// replying with singleConnection on the given replies in order. It reads
// and discards each request before writing its canned reply.
func fakeServer(t *testing.T, conn net.Conn, replySingleConnection []bool) {
	t.Helper()
	for _, single := range replySingleConnection {
		var headerBuf [12]byte
		if _, err := io.ReadFull(conn, headerBuf[:]); err != nil {
			return
		}
		bodyLength := binary.BigEndian.Uint32(headerBuf[8:12])
		sessionID := binary.BigEndian.Uint32(headerBuf[4:8])
		seq := headerBuf[2]

		body := make([]byte, bodyLength)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		flags := uint8(wire.FlagUnencrypted)
		if single {
			flags |= uint8(wire.FlagSingleConnection)
		}

		reply := authReplyBody()
		if err := writeHeader(conn, uint8(wire.PacketTypeAuthentication), seq+1, flags, sessionID, uint32(len(reply))); err != nil {
			return
		}
		if _, err := conn.Write(reply); err != nil {
			return
		}
	}
}

// Vector F: single-connection lifecycle. The first reply's
// SINGLE_CONNECTION flag decides whether a second Authenticate call reuses
// the same connection or opens a fresh one. Secret is omitted since
// obfuscation is orthogonal to this bookkeeping.
func TestSingleConnectionLifecycleVectorF(t *testing.T) {
	newSessCtx := func() SessionContext {
		return NewContextBuilder("alice").Build()
	}

	t.Run("reused when flag set", func(t *testing.T) {
		serverConn, clientConn := net.Pipe()
		dialCount := 0
		factory := func(ctx context.Context) (Stream, error) {
			dialCount++
			return clientConn, nil
		}
		go fakeServer(t, serverConn, []bool{true, true})

		c := New(factory, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if _, err := c.Authenticate(ctx, newSessCtx(), "pw", AuthenticationPAP); err != nil {
			t.Fatal(err)
		}
		if _, err := c.Authenticate(ctx, newSessCtx(), "pw", AuthenticationPAP); err != nil {
			t.Fatal(err)
		}
		if dialCount != 1 {
			t.Fatalf("expected the connection to be reused, factory was called %d times", dialCount)
		}
	})

	t.Run("reopened when flag clear", func(t *testing.T) {
		dialCount := 0
		var conns []net.Conn
		factory := func(ctx context.Context) (Stream, error) {
			dialCount++
			serverConn, clientConn := net.Pipe()
			conns = append(conns, serverConn)
			go fakeServer(t, serverConn, []bool{false})
			return clientConn, nil
		}

		c := New(factory, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if _, err := c.Authenticate(ctx, newSessCtx(), "pw", AuthenticationPAP); err != nil {
			t.Fatal(err)
		}
		if _, err := c.Authenticate(ctx, newSessCtx(), "pw", AuthenticationPAP); err != nil {
			t.Fatal(err)
		}
		if dialCount != 2 {
			t.Fatalf("expected a fresh connection to be opened, factory was called %d times", dialCount)
		}
	})
}

// Sequence mismatch must be a fatal, classified error (testable property 5).
func TestSequenceNumberMismatchRejected(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	go func() {
		var headerBuf [12]byte
		if _, err := io.ReadFull(serverConn, headerBuf[:]); err != nil {
			return
		}
		bodyLength := binary.BigEndian.Uint32(headerBuf[8:12])
		body := make([]byte, bodyLength)
		if _, err := io.ReadFull(serverConn, body); err != nil {
			return
		}
		sessionID := binary.BigEndian.Uint32(headerBuf[4:8])

		reply := authReplyBody()
		// Sequence number 4 instead of the expected 2.
		_ = writeHeader(serverConn, uint8(wire.PacketTypeAuthentication), 4, uint8(wire.FlagUnencrypted), sessionID, uint32(len(reply)))
		_, _ = serverConn.Write(reply)
	}()

	factory := func(ctx context.Context) (Stream, error) { return clientConn, nil }
	c := New(factory, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Authenticate(ctx, NewContextBuilder("bob").Build(), "pw", AuthenticationPAP)
	if err == nil {
		t.Fatal("expected a sequence number mismatch error")
	}
	clientErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if clientErr.Kind != ErrSequenceNumberMismatchKind {
		t.Fatalf("expected ErrSequenceNumberMismatchKind, got %v", clientErr.Kind)
	}
}
