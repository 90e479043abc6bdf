package tcp

import (
	"bytes"
	"testing"
)

func TestRequestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	_ = writeResponseFrame(&buf, RespSessionPayload, 7, nil, []byte("hello"))

	// writeResponseFrame writes the server->client shape; read it back with
	// the same field layout readRequestFrame expects to confirm the header
	// widths agree between the two frame kinds.
	frame, err := readRequestFrame(&buf)
	if err != nil {
		t.Fatalf("readRequestFrame: %v", err)
	}
	if frame.Slot != 7 || string(frame.Payload) != "hello" {
		t.Errorf("frame = %+v, want slot 7 payload %q", frame, "hello")
	}
}

func TestReadRequestFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(ReqSessionPayload))
	buf.Write([]byte{0, 0})               // slot
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff}) // absurd length

	if _, err := readRequestFrame(&buf); err == nil {
		t.Error("readRequestFrame accepted an oversized length prefix")
	}
}

func TestWriteResponseFrameWithWriterByte(t *testing.T) {
	var buf bytes.Buffer
	w := byte(3)
	if err := writeResponseFrame(&buf, RespResultSetPayload, 1, &w, []byte("rows")); err != nil {
		t.Fatalf("writeResponseFrame: %v", err)
	}
	// type(1) + slot(2) + writer(1) + length(4) + payload(4) = 12
	if buf.Len() != 12 {
		t.Errorf("buf.Len() = %d, want 12", buf.Len())
	}
}
