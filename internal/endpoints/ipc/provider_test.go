package ipc

import "testing"

func TestByteSliceProviderReadWrite(t *testing.T) {
	p := NewByteSliceProvider(16)
	if err := p.WriteAt(4, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got := make([]byte, 3)
	if err := p.ReadAt(4, got); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("ReadAt = %v, want [1 2 3]", got)
	}
}

func TestByteSliceProviderBoundsChecked(t *testing.T) {
	p := NewByteSliceProvider(8)
	if err := p.WriteAt(4, make([]byte, 8)); err == nil {
		t.Error("WriteAt past the end of the region should fail")
	}
}

func TestByteSliceProviderAtomics(t *testing.T) {
	p := NewByteSliceProvider(8)
	if err := p.AtomicStore32(0, 42); err != nil {
		t.Fatalf("AtomicStore32: %v", err)
	}
	v, err := p.AtomicLoad32(0)
	if err != nil || v != 42 {
		t.Fatalf("AtomicLoad32 = %d, %v; want 42, nil", v, err)
	}
	if _, err := p.AtomicAdd32(0, 8); err != nil {
		t.Fatalf("AtomicAdd32: %v", err)
	}
	v, _ = p.AtomicLoad32(0)
	if v != 50 {
		t.Errorf("after AtomicAdd32, value = %d, want 50", v)
	}

	if _, err := p.AtomicLoad32(1); err == nil {
		t.Error("AtomicLoad32 at a misaligned offset should fail")
	}
}
