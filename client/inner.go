package client

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tacplusgo/tacacs-plus-go/wire"
)

// Stream is the bidirectional byte-stream contract the engine consumes.
// A caller-supplied ConnectionFactory yields one of these per connection;
// typically a *net.TCPConn or similar.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// ConnectionFactory opens a fresh connection on demand. The engine calls
// it whenever it has no live connection (first use, or after the
// previous one was found dead or was torn down by post-session cleanup).
type ConnectionFactory func(ctx context.Context) (Stream, error)

// inner is the mutex-guarded connection state shared by a Client. It owns
// the live connection (if any) and the single-connection-mode bookkeeping
// flags described in spec §4.8; no other component touches them.
type inner struct {
	// sem serializes sessions one at a time. golang.org/x/sync/semaphore
	// is used instead of sync.Mutex because Acquire is cancel-safe: a
	// context cancellation while waiting returns immediately without
	// ever taking the lock, matching the suspension-point cancel-safety
	// the engine's concurrency model requires.
	sem *semaphore.Weighted

	factory ConnectionFactory

	conn                        Stream
	firstSessionCompleted       bool
	singleConnectionEstablished bool
}

func newInner(factory ConnectionFactory) *inner {
	return &inner{
		sem:     semaphore.NewWeighted(1),
		factory: factory,
	}
}

// acquire serializes entry into a session's wire exchange. The returned
// release function must be called exactly once, however the session ends.
func (in *inner) acquire(ctx context.Context) (func(), error) {
	if err := in.sem.Acquire(ctx, 1); err != nil {
		return nil, errIO(err)
	}
	return func() { in.sem.Release(1) }, nil
}

// connection returns a live connection, probing the existing one and
// reopening via the factory when it is absent or dead.
func (in *inner) connection(ctx context.Context) (Stream, error) {
	if in.conn != nil {
		open, err := isConnectionOpen(in.conn)
		if err != nil {
			in.closeConnection()
			return nil, errIO(err)
		}
		if !open {
			in.closeConnection()
		}
	}

	if in.conn == nil {
		conn, err := in.factory(ctx)
		if err != nil {
			return nil, errIO(err)
		}
		in.conn = conn
	}

	return in.conn, nil
}

// closeConnection tears down the current connection, if any, and resets
// single-connection bookkeeping. Safe to call with no connection present.
func (in *inner) closeConnection() {
	if in.conn != nil {
		in.conn.Close()
		in.conn = nil
	}
	in.firstSessionCompleted = false
	in.singleConnectionEstablished = false
}

// setSingleConnectStatus implements the bookkeeping rule from spec §4.8:
// the first response (sequence number 2) of the first session on a fresh
// connection establishes single-connection mode if the server's reply
// carries SINGLE_CONNECTION.
func (in *inner) setSingleConnectStatus(header wire.HeaderInfo) {
	if !in.firstSessionCompleted && header.SequenceNumber == 2 && header.Flags.Has(wire.FlagSingleConnection) {
		in.singleConnectionEstablished = true
	}
}

// postSessionCleanup applies the connection-recycling policy: a
// connection survives a session only if single-connection mode was
// established and the session did not end in a protocol-level error.
func (in *inner) postSessionCleanup(statusIsError bool) {
	if !in.singleConnectionEstablished || statusIsError {
		in.closeConnection()
	} else if !in.firstSessionCompleted {
		in.firstSessionCompleted = true
	}
}

// isConnectionOpen performs the non-blocking one-byte liveness probe
// described in spec §4.8: ready with zero bytes, or an error indicating
// a broken pipe / connection reset, means the connection is dead; any
// other ready error propagates; a would-block result is presumed live.
func isConnectionOpen(conn Stream) (bool, error) {
	probe, ok := conn.(interface {
		SetReadDeadline(t time.Time) error
	})
	if !ok {
		// Stream implementations without deadline support are presumed
		// live; callers that
		// need liveness probing over such a Stream should wrap it with
		// one that implements SetReadDeadline.
		return true, nil
	}

	// A deadline already in the past makes the next Read non-blocking,
	// standing in for the single non-blocking poll the spec describes.
	if err := probe.SetReadDeadline(time.Unix(0, 1)); err != nil {
		return true, nil
	}
	defer probe.SetReadDeadline(time.Time{})

	var b [1]byte
	n, err := conn.Read(b[:])
	if err == nil {
		// Unexpected data ready before a write; treat as live per spec.
		return true, nil
	}
	if n == 0 && errors.Is(err, io.EOF) {
		return false, nil
	}
	if isResetOrBrokenPipe(err) {
		return false, nil
	}
	if isTimeout(err) {
		// Read would have blocked: connection presumed live.
		return true, nil
	}
	return false, err
}

func isResetOrBrokenPipe(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset")
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
