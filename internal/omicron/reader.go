package omicron

import (
	"encoding/binary"
	"math"
)

// reader is a forward-only cursor over a little-endian buffer. Every read
// reports whether the value fit in the remaining bytes; a failed read does
// not advance the cursor.
type reader struct {
	buf []byte
	off int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) uint32() (uint32, bool) {
	if r.remaining() < 4 {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, true
}

func (r *reader) int32() (int32, bool) {
	v, ok := r.uint32()
	return int32(v), ok
}

func (r *reader) float32() (float32, bool) {
	v, ok := r.uint32()
	return math.Float32frombits(v), ok
}

// bytes returns up to n bytes and advances past them. The result may be
// shorter than n when the buffer is truncated.
func (r *reader) bytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	if n > r.remaining() {
		n = r.remaining()
	}
	out := make([]byte, n)
	copy(out, r.buf[r.off:r.off+n])
	r.off += n
	return out
}
