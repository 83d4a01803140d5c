package image

import (
	"reflect"
	"testing"
)

func seqRange(a, b uint32) []uint32 {
	out := make([]uint32, 0, b-a)
	for v := a; v < b; v++ {
		out = append(out, v)
	}
	return out
}

// TestImageAddressing reproduces the upstream image addressing scenario:
// two overlapping-looking INST1 reservations at different bases, a
// parallel range write across INST0/INST1, and a single-word poke.
func TestImageAddressing(t *testing.T) {
	img := New()
	img.Reserve(INST0, 0x0, 0x100, 0)
	img.Reserve(INST1, 0x1000, 0x1100, 0)
	img.Reserve(INST1, 0x0, 0x100, 0)

	types := []SectionType{INST0, INST1}
	if err := img.SetParallelRange(types, 0x0, [][]uint32{
		seqRange(0x0, 0x100),
		seqRange(0x100, 0x200),
	}); err != nil {
		t.Fatalf("SetParallelRange: %v", err)
	}
	if err := img.Set(INST1, 0x1022, 0x11); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := img.GetParallel(types, 0x33)
	if err != nil {
		t.Fatalf("GetParallel: %v", err)
	}
	if want := []uint32{0x33, 0x133}; !reflect.DeepEqual(got, want) {
		t.Errorf("GetParallel(0x33) = %v, want %v", got, want)
	}

	gotRange, err := img.GetParallelRange(types, 0x90, nil)
	if err != nil {
		t.Fatalf("GetParallelRange: %v", err)
	}
	want := [][]uint32{seqRange(0x90, 0x100), seqRange(0x190, 0x200)}
	if !reflect.DeepEqual(gotRange, want) {
		t.Errorf("GetParallelRange(0x90:) = %v, want %v", gotRange, want)
	}

	if v, err := img.Get(INST1, 0x1021); err != nil || v != 0 {
		t.Errorf("Get(INST1, 0x1021) = (%v, %v), want (0, nil)", v, err)
	}
	if v, err := img.Get(INST1, 0x1022); err != nil || v != 0x11 {
		t.Errorf("Get(INST1, 0x1022) = (%v, %v), want (0x11, nil)", v, err)
	}
}

func TestGetNoBacking(t *testing.T) {
	img := New()
	img.Reserve(INST0, 0, 0x10, 0)
	if _, err := img.Get(INST0, 0x20); err == nil {
		t.Error("Get past the reserved span should fail")
	}
	if _, err := img.Get(INST1, 0); err == nil {
		t.Error("Get on an unreserved section type should fail")
	}
}

func TestRangeOverrunDistinguishesFollowup(t *testing.T) {
	img := New()
	img.Reserve(INST0, 0, 0x10, 0)
	img.Reserve(INST0, 0x10, 0x20, 0)

	end := uint32(0x18)
	if _, err := img.GetRange(INST0, 0x8, &end); err != errSliceOverrun {
		t.Errorf("range spanning into a follow-up section should fail with errSliceOverrun, got %v", err)
	}

	img2 := New()
	img2.Reserve(INST0, 0, 0x10, 0)
	end2 := uint32(0x18)
	if _, err := img2.GetRange(INST0, 0x8, &end2); err == nil || err == errSliceOverrun {
		t.Errorf("range running past the last section should fail with a no-backing error, got %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	img := New()
	img.Imprint = "test-imprint"
	img.Reserve(STATE1, 0, 4, 0)
	img.Set(STATE1, 2, 0xdeadbeef)
	img.Reserve(INST0, 0x10, 0x14, FlagRoutine)
	img.Set(INST0, 0x11, 0xcafef00d)

	bytes1, err := img.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	decoded, err := Read(bytes1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if decoded.Imprint != img.Imprint {
		t.Errorf("Imprint = %q, want %q", decoded.Imprint, img.Imprint)
	}

	bytes2, err := decoded.Write()
	if err != nil {
		t.Fatalf("re-Write: %v", err)
	}
	if !reflect.DeepEqual(bytes1, bytes2) {
		t.Error("write(read(bytes)) != bytes")
	}

	v, err := decoded.Get(STATE1, 2)
	if err != nil || v != 0xdeadbeef {
		t.Errorf("Get(STATE1, 2) = (%v, %v), want (0xdeadbeef, nil)", v, err)
	}
}

func TestSectionSpans(t *testing.T) {
	img := New()
	img.Reserve(INST0, 0, 0x10, 0)
	img.Reserve(INST1, 0x20, 0x30, 0)

	spans := img.SectionSpans(INST0, INST1)
	want := []Span{{INST0, 0, 0x10}, {INST1, 0x20, 0x30}}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("SectionSpans = %v, want %v", spans, want)
	}
}
