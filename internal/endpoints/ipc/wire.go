package ipc

import (
	"encoding/binary"
	"fmt"
	"time"
)

// wire is one single-producer/single-consumer message slot carved out of a
// MemoryProvider region: a 4-byte atomic "ready" flag, a 4-byte length,
// then the payload bytes. The real shared-memory wire this models (spec.md
// §6's request/response/datachannel wires) is out of scope; wire's job is
// only to give the endpoint something concrete to push/pop through the
// MemoryProvider interface.
type wire struct {
	provider MemoryProvider
	base     uint32
	size     uint32 // total bytes available to this wire, including the 8-byte header
}

const wireHeaderSize = 8 // 4 bytes ready flag + 4 bytes length

const (
	wireEmpty uint32 = 0
	wireFull  uint32 = 1
)

func newWire(provider MemoryProvider, base, size uint32) *wire {
	return &wire{provider: provider, base: base, size: size}
}

// push writes payload into the wire and marks it full. It fails if the
// wire is already full (the consumer hasn't drained it yet) or payload
// does not fit.
func (w *wire) push(payload []byte) error {
	if uint64(len(payload))+wireHeaderSize > uint64(w.size) {
		return fmt.Errorf("ipc: payload of %d bytes exceeds wire capacity %d", len(payload), w.size-wireHeaderSize)
	}
	flag, err := w.provider.AtomicLoad32(w.base)
	if err != nil {
		return err
	}
	if flag == wireFull {
		return fmt.Errorf("ipc: wire at offset %d is full", w.base)
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if err := w.provider.WriteAt(w.base+4, lenBuf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if err := w.provider.WriteAt(w.base+wireHeaderSize, payload); err != nil {
			return err
		}
	}
	return w.provider.AtomicStore32(w.base, wireFull)
}

// tryPop reports whether a message is available and, if so, returns (and
// drains) it.
func (w *wire) tryPop() ([]byte, bool, error) {
	flag, err := w.provider.AtomicLoad32(w.base)
	if err != nil {
		return nil, false, err
	}
	if flag != wireFull {
		return nil, false, nil
	}
	var lenBuf [4]byte
	if err := w.provider.ReadAt(w.base+4, lenBuf[:]); err != nil {
		return nil, false, err
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	payload := make([]byte, length)
	if length > 0 {
		if err := w.provider.ReadAt(w.base+wireHeaderSize, payload); err != nil {
			return nil, false, err
		}
	}
	if err := w.provider.AtomicStore32(w.base, wireEmpty); err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// waitPop polls tryPop until a message arrives or timeout elapses —
// used by the in-process test client, which has no external producer
// signaling it any other way.
func (w *wire) waitPop(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		payload, ok, err := w.tryPop()
		if err != nil {
			return nil, err
		}
		if ok {
			return payload, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("ipc: timed out waiting for wire at offset %d", w.base)
		}
		time.Sleep(100 * time.Microsecond)
	}
}
