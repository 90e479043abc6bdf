// Package ipc implements ridge's shared-memory endpoint (spec.md §6
// "Endpoint: shared-memory IPC"). The actual POSIX shared-memory ring
// buffers backing a real deployment are an out-of-scope collaborator
// (spec.md §1): this package models the shared region behind a
// MemoryProvider interface, grounded on
// nmxmxh-inos_v1/kernel/threads/sab/hal.go's shared-array-buffer
// abstraction, with an in-process byte-slice-backed implementation for
// single-process operation and tests. A production deployment implements
// the same interface over mmap.
package ipc

import (
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrOutOfBounds is returned when an offset/length falls outside the
// provider's backing region.
var ErrOutOfBounds = errors.New("ipc: offset out of bounds")

// MemoryProvider abstracts access to the shared region carved up into
// request/response/data-channel wires. Implementations may be backed by
// mmap, a real SysV/POSIX shared-memory segment, or (as here) an
// in-process byte slice.
type MemoryProvider interface {
	Size() uint32
	ReadAt(offset uint32, dest []byte) error
	WriteAt(offset uint32, src []byte) error
	AtomicLoad32(offset uint32) (uint32, error)
	AtomicStore32(offset uint32, val uint32) error
	AtomicAdd32(offset uint32, delta uint32) (uint32, error)
	Close() error
}

// byteSliceProvider is an in-process MemoryProvider: a plain byte slice
// guarded by a mutex, with 4-byte-aligned words additionally reachable as
// atomics for the flag words the wire protocol polls.
type byteSliceProvider struct {
	mu   sync.Mutex
	buf  []byte
	word []atomic.Uint32 // one atomic word per 4-byte-aligned offset, kept in sync with buf for AtomicXxx32
}

// NewByteSliceProvider allocates an in-process shared region of size
// bytes. size must be a multiple of 4 so every offset used by AtomicXxx32
// is aligned.
func NewByteSliceProvider(size uint32) MemoryProvider {
	return &byteSliceProvider{
		buf:  make([]byte, size),
		word: make([]atomic.Uint32, size/4),
	}
}

func (p *byteSliceProvider) Size() uint32 { return uint32(len(p.buf)) }

func (p *byteSliceProvider) bounds(offset uint32, n int) error {
	if uint64(offset)+uint64(n) > uint64(len(p.buf)) {
		return ErrOutOfBounds
	}
	return nil
}

func (p *byteSliceProvider) ReadAt(offset uint32, dest []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.bounds(offset, len(dest)); err != nil {
		return err
	}
	copy(dest, p.buf[offset:int(offset)+len(dest)])
	return nil
}

func (p *byteSliceProvider) WriteAt(offset uint32, src []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.bounds(offset, len(src)); err != nil {
		return err
	}
	copy(p.buf[offset:int(offset)+len(src)], src)
	return nil
}

func (p *byteSliceProvider) AtomicLoad32(offset uint32) (uint32, error) {
	idx, err := p.wordIndex(offset)
	if err != nil {
		return 0, err
	}
	return p.word[idx].Load(), nil
}

func (p *byteSliceProvider) AtomicStore32(offset uint32, val uint32) error {
	idx, err := p.wordIndex(offset)
	if err != nil {
		return err
	}
	p.word[idx].Store(val)
	p.mu.Lock()
	binary.LittleEndian.PutUint32(p.buf[offset:offset+4], val)
	p.mu.Unlock()
	return nil
}

func (p *byteSliceProvider) AtomicAdd32(offset uint32, delta uint32) (uint32, error) {
	idx, err := p.wordIndex(offset)
	if err != nil {
		return 0, err
	}
	v := p.word[idx].Add(delta)
	p.mu.Lock()
	binary.LittleEndian.PutUint32(p.buf[offset:offset+4], v)
	p.mu.Unlock()
	return v, nil
}

func (p *byteSliceProvider) wordIndex(offset uint32) (uint32, error) {
	if offset%4 != 0 {
		return 0, errors.New("ipc: misaligned atomic offset")
	}
	if err := p.bounds(offset, 4); err != nil {
		return 0, err
	}
	return offset / 4, nil
}

func (p *byteSliceProvider) Close() error { return nil }
