// Package wire implements the length-delimited protobuf framework header
// shared by both endpoints (spec.md §6 "Framework wire header"). It is
// hand-rolled against google.golang.org/protobuf/encoding/protowire rather
// than generated from a .proto file, since the header has exactly three
// fields and ridge has no other use for a protoc toolchain.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// PayloadType tags what kind of body follows a response header.
type PayloadType int32

const (
	PayloadServiceBody     PayloadType = 0
	PayloadServerDiagnostics PayloadType = 1
)

const (
	fieldServiceID   protowire.Number = 1
	fieldSessionID   protowire.Number = 2
	fieldPayloadType protowire.Number = 3
)

// Header is the framework header every request and response carries ahead
// of its service-level payload.
type Header struct {
	ServiceID   uint32
	SessionID   uint64
	PayloadType PayloadType
}

// EncodeHeader serializes h as a protobuf message: varint fields for
// service_id, session_id, and (when non-zero) payload_type.
func EncodeHeader(h Header) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldServiceID, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(h.ServiceID))
	buf = protowire.AppendTag(buf, fieldSessionID, protowire.VarintType)
	buf = protowire.AppendVarint(buf, h.SessionID)
	if h.PayloadType != PayloadServiceBody {
		buf = protowire.AppendTag(buf, fieldPayloadType, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(h.PayloadType))
	}
	return buf
}

// DecodeHeader parses a Header out of b, tolerating unknown fields (future
// wire additions) by skipping them. It returns an error if a known field's
// wire type doesn't match what's expected, or the message is truncated.
func DecodeHeader(b []byte) (Header, error) {
	var h Header
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Header{}, fmt.Errorf("wire: malformed tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldServiceID:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Header{}, fmt.Errorf("wire: malformed service_id: %w", protowire.ParseError(n))
			}
			h.ServiceID = uint32(v)
			b = b[n:]
		case fieldSessionID:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Header{}, fmt.Errorf("wire: malformed session_id: %w", protowire.ParseError(n))
			}
			h.SessionID = v
			b = b[n:]
		case fieldPayloadType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Header{}, fmt.Errorf("wire: malformed payload_type: %w", protowire.ParseError(n))
			}
			h.PayloadType = PayloadType(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Header{}, fmt.Errorf("wire: malformed unknown field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return h, nil
}

// AppendLengthDelimited prepends a varint length prefix to payload and
// appends both to buf — the length-delimited framing spec.md §6 requires
// around both the header and the service-level body.
func AppendLengthDelimited(buf, payload []byte) []byte {
	buf = protowire.AppendVarint(buf, uint64(len(payload)))
	return append(buf, payload...)
}

// ConsumeLengthDelimited reads one length-prefixed block off the front of
// b, returning the block and the number of bytes consumed (including the
// length prefix itself), or n < 0 on a truncated/malformed prefix.
func ConsumeLengthDelimited(b []byte) (payload []byte, n int) {
	length, ln := protowire.ConsumeVarint(b)
	if ln < 0 {
		return nil, ln
	}
	total := ln + int(length)
	if total > len(b) {
		return nil, -1
	}
	return b[ln:total], total
}
