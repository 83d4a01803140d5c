// Package image implements the LEAPFROG binary image container: a
// header plus a flat list of typed, independently based sections of
// 32-bit words.
package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// SectionType names the kind of data a section carries. Values mirror
// the wire encoding directly; unrecognised values round-trip as-is.
type SectionType uint32

const (
	STATE0 SectionType = 0x10000
	STATE1 SectionType = 0x10001
	STATE2 SectionType = 0x10002
	STATE3 SectionType = 0x10003

	INST0 SectionType = 0x20000
	INST1 SectionType = 0x20001
	INST2 SectionType = 0x20002
	INST3 SectionType = 0x20003

	WaitEmptyList SectionType = 0x30000
	WaitFullList  SectionType = 0x30001

	IOInit      SectionType = 0x30100
	PDMSpecial  SectionType = 0x30101
)

// HasInstructions reports whether t holds one of the four parallel
// instruction-word streams.
func (t SectionType) HasInstructions() bool {
	return t >= INST0 && t <= INST3
}

func (t SectionType) String() string {
	switch t {
	case STATE0:
		return "STATE0"
	case STATE1:
		return "STATE1"
	case STATE2:
		return "STATE2"
	case STATE3:
		return "STATE3"
	case INST0:
		return "INST0"
	case INST1:
		return "INST1"
	case INST2:
		return "INST2"
	case INST3:
		return "INST3"
	case WaitEmptyList:
		return "WAITEMPTY_LIST"
	case WaitFullList:
		return "WAITFULL_LIST"
	case IOInit:
		return "IO_INIT"
	case PDMSpecial:
		return "PDM_SPECIAL"
	default:
		return fmt.Sprintf("%#x (unknown)", uint32(t))
	}
}

// SectionFlags are per-section wire flags.
type SectionFlags uint32

// FlagRoutine marks an INST section span as backing a routine, as
// opposed to scratch or unused reservation.
const FlagRoutine SectionFlags = 1

const (
	magic      uint32 = 0x1ea9f108
	fmtVersion uint32 = 0
	imprintLen        = 32
)

// Section is one typed, contiguous run of words starting at LoadBase.
type Section struct {
	Type     SectionType
	LoadBase uint32
	Flags    SectionFlags
	Data     []uint32
}

// End returns the address one past the section's last word.
func (s *Section) End() uint32 { return s.LoadBase + uint32(len(s.Data)) }

// Span is a half-open address range within one section type.
type Span struct {
	Type  SectionType
	Start uint32
	End   uint32
}

// Image is a LEAPFROG container: an imprint string plus the section
// list, with a sorted index kept for addressed lookups.
type Image struct {
	Imprint  string
	Sections []*Section

	index []*Section // sorted by (Type, LoadBase), parallel to sort order
}

// New returns an empty image.
func New() *Image {
	return &Image{}
}

// Index rebuilds the sorted lookup table. Call it after appending or
// reordering Sections directly; Reserve calls it automatically.
func (img *Image) Index() {
	img.index = append([]*Section(nil), img.Sections...)
	sort.Slice(img.index, func(i, j int) bool {
		a, b := img.index[i], img.index[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.LoadBase < b.LoadBase
	})
}

// Reserve appends a zero-filled section spanning [start, end) and
// re-indexes the image.
func (img *Image) Reserve(t SectionType, start, end uint32, flags SectionFlags) *Section {
	sect := &Section{
		Type:     t,
		LoadBase: start,
		Flags:    flags,
		Data:     make([]uint32, end-start),
	}
	img.Sections = append(img.Sections, sect)
	img.Index()
	return sect
}

// SectionSpans enumerates the distinct (type, range) pairs present in
// the image, sorted by type then base. With no types given, every
// section type present is included.
func (img *Image) SectionSpans(types ...SectionType) []Span {
	want := map[SectionType]bool{}
	for _, t := range types {
		want[t] = true
	}
	seen := map[Span]bool{}
	var spans []Span
	for _, s := range img.Sections {
		if len(types) > 0 && !want[s.Type] {
			continue
		}
		sp := Span{s.Type, s.LoadBase, s.End()}
		if !seen[sp] {
			seen[sp] = true
			spans = append(spans, sp)
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Type != spans[j].Type {
			return spans[i].Type < spans[j].Type
		}
		return spans[i].Start < spans[j].Start
	})
	return spans
}

// lookupSection finds the section of type t covering addr, if any.
func (img *Image) lookupSection(t SectionType, addr uint32) *Section {
	lo, hi := 0, len(img.index)
	for lo < hi {
		mid := (lo + hi) / 2
		s := img.index[mid]
		if s.Type < t || (s.Type == t && s.LoadBase <= addr) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	idx := lo - 1
	if idx < 0 || img.index[idx].Type != t {
		return nil
	}
	sect := img.index[idx]
	if addr >= sect.End() {
		return nil
	}
	return sect
}

// Contains reports whether addr has backing in a section of type t.
func (img *Image) Contains(t SectionType, addr uint32) bool {
	return img.lookupSection(t, addr) != nil
}

// Get reads a single word. It fails with "no backing" if addr isn't
// covered by any section of type t.
func (img *Image) Get(t SectionType, addr uint32) (uint32, error) {
	sect := img.lookupSection(t, addr)
	if sect == nil {
		return 0, fmt.Errorf("image: no backing for %s,%#x in image", t, addr)
	}
	return sect.Data[addr-sect.LoadBase], nil
}

// Set writes a single word, failing the same way Get does.
func (img *Image) Set(t SectionType, addr uint32, val uint32) error {
	sect := img.lookupSection(t, addr)
	if sect == nil {
		return fmt.Errorf("image: no backing for %s,%#x in image", t, addr)
	}
	sect.Data[addr-sect.LoadBase] = val
	return nil
}

// errSliceOverrun is the error returned by GetRange and
// SetRange when a requested range runs past the end of the section
// that backs its start, but a follow-up section does cover the
// boundary word — i.e. there is data there, reading across sections
// within one range request just isn't implemented.
var errSliceOverrun = fmt.Errorf("image: slice overruns an image section")

// probeBoundary distinguishes "nothing backs the rest of this range"
// (propagated as the underlying no-backing error) from "something
// backs the boundary word, but spanning sections isn't supported"
// (errSliceOverrun).
func (img *Image) probeBoundary(t SectionType, addr uint32) error {
	if _, err := img.Get(t, addr); err != nil {
		return err
	}
	return errSliceOverrun
}

// GetRange reads the words in [start, end) from the section of type t
// that starts at or before start. A nil end reads to the end of that
// section.
func (img *Image) GetRange(t SectionType, start uint32, end *uint32) ([]uint32, error) {
	sect := img.lookupSection(t, start)
	if end == nil {
		if sect == nil {
			return nil, nil
		}
		return append([]uint32(nil), sect.Data[start-sect.LoadBase:]...), nil
	}
	if *end <= start {
		return nil, nil
	}
	if sect == nil {
		return nil, fmt.Errorf("image: no backing for %s,%#x in image", t, start)
	}
	if *end > sect.End() {
		return nil, img.probeBoundary(t, sect.End())
	}
	return append([]uint32(nil), sect.Data[start-sect.LoadBase:*end-sect.LoadBase]...), nil
}

// SetRange writes data into [start, start+len(data)) within the
// section of type t that starts at or before start.
func (img *Image) SetRange(t SectionType, start uint32, data []uint32) error {
	if len(data) == 0 {
		return nil
	}
	end := start + uint32(len(data))
	sect := img.lookupSection(t, start)
	if sect == nil {
		return fmt.Errorf("image: no backing for %s,%#x in image", t, start)
	}
	if end > sect.End() {
		return img.probeBoundary(t, sect.End())
	}
	copy(sect.Data[start-sect.LoadBase:end-sect.LoadBase], data)
	return nil
}

// GetParallel reads one word from each of several sibling section
// types at the same address, e.g. the four INST banks at one PC.
func (img *Image) GetParallel(types []SectionType, addr uint32) ([]uint32, error) {
	out := make([]uint32, len(types))
	for i, t := range types {
		v, err := img.Get(t, addr)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// SetParallel writes one word to each of several sibling section
// types at the same address.
func (img *Image) SetParallel(types []SectionType, addr uint32, data []uint32) error {
	if len(data) != len(types) {
		return fmt.Errorf("image: SetParallel expects %d values, got %d", len(types), len(data))
	}
	for i, t := range types {
		if err := img.Set(t, addr, data[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetParallelRange reads [start, end) from each of several sibling
// section types, returning one slice per type.
func (img *Image) GetParallelRange(types []SectionType, start uint32, end *uint32) ([][]uint32, error) {
	out := make([][]uint32, len(types))
	for i, t := range types {
		v, err := img.GetRange(t, start, end)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// SetParallelRange writes one slice per sibling section type starting
// at start.
func (img *Image) SetParallelRange(types []SectionType, start uint32, data [][]uint32) error {
	if len(data) != len(types) {
		return fmt.Errorf("image: SetParallelRange expects %d slices, got %d", len(types), len(data))
	}
	for i, t := range types {
		if err := img.SetRange(t, start, data[i]); err != nil {
			return err
		}
	}
	return nil
}

// Read parses a LEAPFROGImage from its wire bytes.
func Read(data []byte) (*Image, error) {
	r := bytes.NewReader(data)

	var hdr struct {
		Magic      uint32
		FmtVersion uint32
		Imprint    [imprintLen]byte
		NSections  uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("image: reading header: %w", err)
	}
	if hdr.Magic != magic {
		return nil, fmt.Errorf("image: bad magic %#x, want %#x", hdr.Magic, magic)
	}
	if hdr.FmtVersion != fmtVersion {
		return nil, fmt.Errorf("image: unsupported format version %d", hdr.FmtVersion)
	}

	img := &Image{Imprint: trimImprint(hdr.Imprint[:])}

	for i := uint32(0); i < hdr.NSections; i++ {
		var rec struct {
			Type     uint32
			LoadBase uint32
			Size     uint32
			Flags    uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("image: reading section %d header: %w", i, err)
		}
		data := make([]uint32, rec.Size)
		if err := binary.Read(r, binary.LittleEndian, &data); err != nil {
			return nil, fmt.Errorf("image: reading section %d data: %w", i, err)
		}
		img.Sections = append(img.Sections, &Section{
			Type:     SectionType(rec.Type),
			LoadBase: rec.LoadBase,
			Flags:    SectionFlags(rec.Flags),
			Data:     data,
		})
	}

	img.Index()
	return img, nil
}

func trimImprint(b []byte) string {
	n := bytes.IndexByte(b, 0)
	if n < 0 {
		n = len(b)
	}
	return string(b[:n])
}

// Write serialises the image back to its wire bytes. An imprint of 32
// bytes or longer is truncated to fit the fixed-size header field.
func (img *Image) Write() ([]byte, error) {
	imprint := img.Imprint
	if len(imprint) >= imprintLen {
		imprint = imprint[:imprintLen-1]
	}

	var buf bytes.Buffer
	var imprintBytes [imprintLen]byte
	copy(imprintBytes[:], imprint)

	hdr := struct {
		Magic      uint32
		FmtVersion uint32
		Imprint    [imprintLen]byte
		NSections  uint32
	}{magic, fmtVersion, imprintBytes, uint32(len(img.Sections))}

	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("image: writing header: %w", err)
	}

	for _, s := range img.Sections {
		rec := struct {
			Type     uint32
			LoadBase uint32
			Size     uint32
			Flags    uint32
		}{uint32(s.Type), s.LoadBase, uint32(len(s.Data)), uint32(s.Flags)}
		if err := binary.Write(&buf, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("image: writing section header: %w", err)
		}
		if err := binary.Write(&buf, binary.LittleEndian, s.Data); err != nil {
			return nil, fmt.Errorf("image: writing section data: %w", err)
		}
	}

	return buf.Bytes(), nil
}
