package otbuild

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// Writer provides big-endian writing utilities for OpenType binary data.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// U16 writes a uint16.
func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// I16 writes an int16.
func (w *Writer) I16(v int16) {
	w.U16(uint16(v))
}

// U32 writes a uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// Tag writes a 4-byte tag.
func (w *Writer) Tag(t ot.Tag) {
	b := t.Bytes()
	w.buf.Write(b[:])
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// --- Offset assembly -------------------------------------------------------

// assembly builds a table consisting of a header with offsets, followed by the
// sub-structures the offsets point to. Offsets are relative to the start of
// the header. Identical sub-structures are stored only once.
type assembly struct {
	w        *Writer
	children []child
}

type child struct {
	at   int // position of the offset field in the header
	wide bool
	data []byte
}

func newAssembly() *assembly {
	return &assembly{w: NewWriter()}
}

// offset16 writes a 16-bit offset field for a sub-structure. A nil
// sub-structure results in a NULL offset.
func (a *assembly) offset16(data []byte) {
	if data != nil {
		a.children = append(a.children, child{at: a.w.Len(), data: data})
	}
	a.w.U16(0)
}

// offset32 writes a 32-bit offset field for a sub-structure. A nil
// sub-structure results in a NULL offset.
func (a *assembly) offset32(data []byte) {
	if data != nil {
		a.children = append(a.children, child{at: a.w.Len(), wide: true, data: data})
	}
	a.w.U32(0)
}

// bytes appends all sub-structures to the header and patches the offsets.
func (a *assembly) bytes(what string) ([]byte, error) {
	out := a.w.Bytes()
	placed := make(map[string]int, len(a.children))
	for _, c := range a.children {
		pos, ok := placed[string(c.data)]
		if !ok {
			pos = len(out)
			out = append(out, c.data...)
			placed[string(c.data)] = pos
		}
		if c.wide {
			binary.BigEndian.PutUint32(out[c.at:], uint32(pos))
			continue
		}
		if pos > math.MaxUint16 {
			return nil, core.Error(core.EOVERFLOW, "offset overflow in %s: %d", what, pos)
		}
		binary.BigEndian.PutUint16(out[c.at:], uint16(pos))
	}
	return out, nil
}

// checkCount fails if a number of items cannot be stored in a uint16 field.
func checkCount(n int, what string) error {
	if n > math.MaxUint16 {
		return core.Error(core.EOVERFLOW, "too many %s: %d", what, n)
	}
	return nil
}
