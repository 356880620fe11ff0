package ot

import (
	"errors"
)

// Reading bytes from a font's binary representation

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

// binarySegm is a segment of byte data. We use it throughout this package to
// navigate the font's binary data.
type binarySegm []byte

func (b binarySegm) Size() int {
	return len(b)
}

func (b binarySegm) Bytes() []byte {
	return b
}

// U16 is a convenience access to 16 bit data at byte index i. It returns 0
// for out-of-bounds access.
func (b binarySegm) U16(i int) uint16 {
	n, err := b.u16(i)
	if err != nil {
		return 0
	}
	return n
}

// U32 is a convenience access to 32 bit data at byte index i. It returns 0
// for out-of-bounds access.
func (b binarySegm) U32(i int) uint32 {
	n, err := b.u32(i)
	if err != nil {
		return 0
	}
	return n
}

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset+n > len(b) {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// from returns the tail of b, starting at offset.
func (b binarySegm) from(offset int) (binarySegm, error) {
	if offset < 0 || offset > len(b) {
		return nil, errBufferBounds
	}
	return b[offset:], nil
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// u32 returns the uint32 in b at the relative offset i.
func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// --- Tag record lists ------------------------------------------------------

// tagRecords reads a count-prefixed list of records, each starting with a Tag
// followed by an Offset16, as used by ScriptList and FeatureList.
// It returns the tags and the offsets in the order found.
func tagRecords(b binarySegm) ([]Tag, []uint16, error) {
	n, err := b.u16(0)
	if err != nil {
		return nil, nil, err
	}
	recs, err := b.view(2, int(n)*6)
	if err != nil {
		return nil, nil, err
	}
	tags := make([]Tag, n)
	offsets := make([]uint16, n)
	for i := 0; i < int(n); i++ {
		tags[i] = MakeTag(recs[i*6 : i*6+4])
		offsets[i] = u16(recs[i*6+4:])
	}
	return tags, offsets, nil
}

// u16Array reads a count-prefixed array of uint16 values at offset.
func u16Array(b binarySegm, offset int) ([]uint16, error) {
	n, err := b.u16(offset)
	if err != nil {
		return nil, err
	}
	arr, err := b.view(offset+2, int(n)*2)
	if err != nil {
		return nil, err
	}
	r := make([]uint16, n)
	for i := range r {
		r[i] = u16(arr[i*2:])
	}
	return r, nil
}
