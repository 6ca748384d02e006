package client

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/tacplusgo/tacacs-plus-go/wire"
)

// AuthenticationKind selects the PAP/CHAP authentication algorithms this
// module implements. ASCII/CONTINUE multi-turn authentication is an
// explicit non-goal.
type AuthenticationKind int

const (
	AuthenticationPAP AuthenticationKind = iota
	AuthenticationCHAP
)

// Client drives TACACS+ authentication, authorization, and accounting
// exchanges over a connection obtained from a ConnectionFactory. A Client
// is safe for concurrent use: sessions are serialized internally.
type Client struct {
	in     *inner
	secret []byte
}

// New constructs a Client. secret is the shared obfuscation key; pass nil
// for an unobfuscated (UNENCRYPTED) connection. RFC 8907 recommends a
// secret of at least 16 bytes.
func New(factory ConnectionFactory, secret []byte) *Client {
	return &Client{in: newInner(factory), secret: secret}
}

// Authenticate runs a single-exchange PAP or CHAP authentication session.
func (c *Client) Authenticate(ctx context.Context, sessCtx SessionContext, password string, kind AuthenticationKind) (*AuthenticationResponse, error) {
	userInfo, err := sessCtx.userInformation()
	if err != nil {
		return nil, errInvalidContext()
	}

	var authType wire.AuthenticationType
	var data []byte
	switch kind {
	case AuthenticationPAP:
		if len(password) > 0xFF {
			return nil, errPasswordTooLong()
		}
		authType = wire.AuthenticationTypePAP
		data = []byte(password)
	case AuthenticationCHAP:
		authType = wire.AuthenticationTypeCHAP
		data, err = chapStartData(password)
		if err != nil {
			return nil, errIO(err)
		}
	default:
		return nil, errInvalidContext()
	}

	body, err := wire.NewAuthenticationStart(
		wire.ActionLogin,
		wire.AuthenticationContext{
			PrivilegeLevel: sessCtx.PrivilegeLevel,
			Type:           authType,
			Service:        wire.AuthenticationServiceLogin,
		},
		userInfo,
		data,
	)
	if err != nil {
		return nil, errInvalidPacketData()
	}

	release, err := c.in.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	header := c.newRequestHeader()
	replyBody, replyHeader, err := c.exchange(ctx, header, body)
	if err != nil {
		return nil, err
	}

	reply, ok := replyBody.(wire.AuthenticationReply)
	if !ok {
		return nil, errInvalidPacketData()
	}

	statusIsError := reply.Status == wire.AuthenticationStatusError
	c.in.setSingleConnectStatus(replyHeader)
	c.in.postSessionCleanup(statusIsError)

	status, ok := responseStatusFromAuthentication(reply.Status)
	if !ok {
		return nil, errAuthentication(reply.Status, reply.Data, reply.ServerMessage.String())
	}

	return &AuthenticationResponse{
		Status:        status,
		ServerMessage: reply.ServerMessage.String(),
		Data:          reply.Data,
	}, nil
}

// chapStartData builds the CHAP Start.data field per spec §4.8: a random
// 1-byte PPP id, a random 16-byte challenge, and the MD5 response
// MD5(ppp_id || password || challenge).
func chapStartData(password string) ([]byte, error) {
	var idAndChallenge [17]byte
	if _, err := io.ReadFull(rand.Reader, idAndChallenge[:]); err != nil {
		return nil, err
	}
	pppID := idAndChallenge[0]
	challenge := idAndChallenge[1:]

	h := md5.New()
	h.Write([]byte{pppID})
	h.Write([]byte(password))
	h.Write(challenge)
	response := h.Sum(nil)

	data := make([]byte, 0, 1+16+16)
	data = append(data, pppID)
	data = append(data, challenge...)
	data = append(data, response...)
	return data, nil
}

// Authorize runs a single-exchange authorization session, merging the
// server's returned arguments into the caller's set per RFC 8907 (see
// wire.MergeArguments).
func (c *Client) Authorize(ctx context.Context, sessCtx SessionContext, arguments wire.Arguments) (*AuthorizationResponse, error) {
	userInfo, err := sessCtx.userInformation()
	if err != nil {
		return nil, errInvalidContext()
	}
	args, err := wire.NewArguments(arguments)
	if err != nil {
		return nil, errTooManyArguments()
	}

	body := wire.AuthorizationRequest{
		Method: sessCtx.authenticationMethod(),
		Authentication: wire.AuthenticationContext{
			PrivilegeLevel: sessCtx.PrivilegeLevel,
			Type:           wire.AuthenticationTypeNotSet,
			Service:        wire.AuthenticationServiceLogin,
		},
		UserInformation: userInfo,
		Arguments:       args,
	}

	release, err := c.in.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	header := c.newRequestHeader()
	replyBody, replyHeader, err := c.exchange(ctx, header, body)
	if err != nil {
		return nil, err
	}

	reply, ok := replyBody.(wire.AuthorizationReply)
	if !ok {
		return nil, errInvalidPacketData()
	}

	statusIsError := reply.Status == wire.AuthorizationStatusError
	c.in.setSingleConnectStatus(replyHeader)
	c.in.postSessionCleanup(statusIsError)

	status, ok := responseStatusFromAuthorization(reply.Status)
	if !ok {
		return nil, errAuthorization(reply.Status, reply.ServerMessage.String(), reply.Data.String())
	}

	merged := wire.MergeArguments(reply.Status, args, reply.Arguments)

	return &AuthorizationResponse{
		Status:        status,
		Arguments:     merged,
		ServerMessage: reply.ServerMessage.String(),
		AdminMessage:  reply.Data.String(),
	}, nil
}

// sendAccounting runs one complete accounting session (used by
// AccountingTask's Start/Update/Stop).
func (c *Client) sendAccounting(ctx context.Context, sessCtx SessionContext, flags wire.AccountingFlags, arguments wire.Arguments) (*AccountingResponse, error) {
	userInfo, err := sessCtx.userInformation()
	if err != nil {
		return nil, errInvalidContext()
	}
	args, err := wire.NewArguments(arguments)
	if err != nil {
		return nil, errTooManyArguments()
	}

	body := wire.AccountingRequest{
		Flags:                flags,
		AuthenticationMethod: sessCtx.authenticationMethod(),
		Authentication: wire.AuthenticationContext{
			PrivilegeLevel: sessCtx.PrivilegeLevel,
			Type:           wire.AuthenticationTypeNotSet,
			Service:        wire.AuthenticationServiceLogin,
		},
		UserInformation: userInfo,
		Arguments:       args,
	}

	release, err := c.in.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	header := c.newRequestHeader()
	replyBody, replyHeader, err := c.exchange(ctx, header, body)
	if err != nil {
		return nil, err
	}

	reply, ok := replyBody.(wire.AccountingReply)
	if !ok {
		return nil, errInvalidPacketData()
	}

	statusIsError := reply.Status == wire.AccountingStatusError
	c.in.setSingleConnectStatus(replyHeader)
	c.in.postSessionCleanup(statusIsError)

	if _, ok := responseStatusFromAccounting(reply.Status); !ok {
		return nil, errAccounting(reply.Status, reply.ServerMessage.String(), reply.Data.String())
	}

	return &AccountingResponse{
		ServerMessage: reply.ServerMessage.String(),
		AdminMessage:  reply.Data.String(),
	}, nil
}

// newRequestHeader builds a fresh request header: a random session id,
// sequence number 1, SINGLE_CONNECTION set, and UNENCRYPTED set iff no
// secret is configured. The body's required minor version, if any,
// overrides Version.Minor in wire.NewPacket.
func (c *Client) newRequestHeader() wire.HeaderInfo {
	flags := wire.FlagSingleConnection
	if c.secret == nil {
		flags |= wire.FlagUnencrypted
	}
	return wire.HeaderInfo{
		Version:        wire.Version{Minor: wire.MinorVersionDefault},
		SequenceNumber: 1,
		Flags:          flags,
		SessionID:      randomSessionID(),
	}
}

func randomSessionID() uint32 {
	var b [4]byte
	_, _ = io.ReadFull(rand.Reader, b[:])
	return binary.BigEndian.Uint32(b[:])
}

// exchange performs one complete write-request/read-reply round trip: it
// ensures a live connection, writes the request packet, reads back the
// reply, and verifies the reply's sequence number is the expected
// successor (2, for the single-turn sessions this client implements).
func (c *Client) exchange(ctx context.Context, header wire.HeaderInfo, body wire.Serializable) (wire.Body, wire.HeaderInfo, error) {
	conn, err := c.in.connection(ctx)
	if err != nil {
		return nil, wire.HeaderInfo{}, err
	}

	packet := wire.NewPacket(header, body)

	buf := make([]byte, wire.HeaderSize+body.WireSize())
	n, err := wire.Serialize(packet, c.secret, buf)
	if err != nil {
		c.in.closeConnection()
		return nil, wire.HeaderInfo{}, errSerialize(err)
	}

	if _, err := conn.Write(buf[:n]); err != nil {
		c.in.closeConnection()
		return nil, wire.HeaderInfo{}, errIO(err)
	}

	var headerBuf [wire.HeaderSize]byte
	if _, err := io.ReadFull(conn, headerBuf[:]); err != nil {
		c.in.closeConnection()
		return nil, wire.HeaderInfo{}, errIO(err)
	}

	replyHeader, bodyLength, err := wire.DeserializeHeader(headerBuf[:])
	if err != nil {
		c.in.closeConnection()
		return nil, wire.HeaderInfo{}, errInvalidPacketReceived(err)
	}

	if replyHeader.SequenceNumber == 0xFF {
		c.in.closeConnection()
		return nil, wire.HeaderInfo{}, errSequenceNumberOverflow()
	}
	if replyHeader.SequenceNumber != header.SequenceNumber+1 {
		c.in.closeConnection()
		return nil, wire.HeaderInfo{}, errSequenceNumberMismatch(header.SequenceNumber+1, replyHeader.SequenceNumber)
	}

	bodyBuf := make([]byte, bodyLength)
	if _, err := io.ReadFull(conn, bodyBuf); err != nil {
		c.in.closeConnection()
		return nil, wire.HeaderInfo{}, errIO(err)
	}

	replyBody, err := wire.DeserializeBody(replyHeader, body.PacketType(), c.secret, bodyBuf)
	if err != nil {
		c.in.closeConnection()
		return nil, wire.HeaderInfo{}, errInvalidPacketReceived(err)
	}

	return replyBody, replyHeader, nil
}
