// Package tcp implements ridge's length-prefixed-frame TCP endpoint
// (spec.md §6 "Endpoint: TCP stream"): one session per net.Conn, framed
// exactly per the spec's type codes and frame layout. Grounded on the
// teacher's internal/mcp/transport.go session bookkeeping (map+mutex,
// google/uuid session ids), ported from HTTP/SSE sessions to a raw
// net.Conn read loop.
package tcp

import (
	"encoding/binary"
	"fmt"
	"io"
)

// RequestType is one of the client-to-server frame type codes (spec.md
// §6).
type RequestType byte

const (
	ReqSessionHello     RequestType = 1
	ReqSessionPayload   RequestType = 2
	ReqResultSetByeOK   RequestType = 3
	ReqSessionBye       RequestType = 4
	// ReqCancel is the canonical endpoint-broker cancel command (spec.md
	// §6 names it "REQUEST_CANCEL" without assigning it a literal wire
	// value alongside the numbered request codes); ridge assigns it 5,
	// the next free slot after REQUEST_SESSION_BYE.
	ReqCancel RequestType = 5
)

// ResponseType is one of the server-to-client frame type codes.
type ResponseType byte

const (
	RespSessionPayload   ResponseType = 1
	RespResultSetPayload ResponseType = 2
	RespSessionHelloOK   ResponseType = 3
	RespSessionHelloNG   ResponseType = 4
	RespResultSetHello   ResponseType = 5
	RespResultSetBye     ResponseType = 6
	RespSessionBodyhead  ResponseType = 7
	// RespSessionByeOK is deprecated (spec.md §6) but kept for protocol
	// completeness; ridge never sends it and does not acknowledge a
	// session bye at all: the endpoint just closes the connection.
	RespSessionByeOK ResponseType = 8
)

const maxFrameLength = 64 << 20 // 64MiB: generous but bounded, guards against a corrupt length prefix

// requestFrame is one parsed client->server frame:
// [type: u8][slot: u16 LE][length: u32 LE][payload...].
type requestFrame struct {
	Type    RequestType
	Slot    uint16
	Payload []byte
}

func readRequestFrame(r io.Reader) (requestFrame, error) {
	var hdr [7]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return requestFrame{}, err
	}
	length := binary.LittleEndian.Uint32(hdr[3:7])
	if length > maxFrameLength {
		return requestFrame{}, fmt.Errorf("tcp: frame length %d exceeds maximum", length)
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return requestFrame{}, err
		}
	}
	return requestFrame{
		Type:    RequestType(hdr[0]),
		Slot:    binary.LittleEndian.Uint16(hdr[1:3]),
		Payload: payload,
	}, nil
}

// writeResponseFrame writes [type: u8][slot: u16 LE][length: u32 LE]
// [payload...] to w, with an additional [writer: u8] preceding the length
// when writer is non-nil (spec.md §6: "for result-set payloads an
// additional [writer: u8] precedes the length").
func writeResponseFrame(w io.Writer, typ ResponseType, slot uint16, writer *byte, payload []byte) error {
	head := make([]byte, 0, 8)
	head = append(head, byte(typ))
	var slotBuf [2]byte
	binary.LittleEndian.PutUint16(slotBuf[:], slot)
	head = append(head, slotBuf[:]...)
	if writer != nil {
		head = append(head, *writer)
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	head = append(head, lenBuf[:]...)

	if _, err := w.Write(head); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}
