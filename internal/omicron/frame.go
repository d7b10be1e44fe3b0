package omicron

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MaxExtraDataSize bounds the payload accepted from a stream. A header that
// announces more is treated as a framing error because the stream can no
// longer be resynchronised.
const MaxExtraDataSize = 1 << 20

// ReadFrame reads one complete record from a byte stream. The payload length
// is taken from the header's extra data type and item count.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := ExtraDataType(binary.LittleEndian.Uint32(header[52:]))
	items := binary.LittleEndian.Uint32(header[56:])
	size := ExtraDataSize(t, items)
	if size > MaxExtraDataSize {
		return nil, fmt.Errorf("extra data of %d bytes exceeds limit %d", size, MaxExtraDataSize)
	}
	if size == 0 {
		return header, nil
	}

	frame := make([]byte, HeaderSize+size)
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("failed to read %d bytes of extra data: %w", size, err)
	}
	return frame, nil
}

// Encode serialises e in wire format. ExtraData is written as given; callers
// are responsible for keeping it consistent with ExtraDataType and
// ExtraDataItems.
func Encode(e TrackingEvent) []byte {
	buf := make([]byte, HeaderSize+len(e.ExtraData))
	le := binary.LittleEndian
	le.PutUint32(buf[0:], e.Timestamp)
	le.PutUint32(buf[4:], e.SourceID)
	le.PutUint32(buf[8:], uint32(e.ServiceID))
	le.PutUint32(buf[12:], uint32(e.ServiceType))
	le.PutUint32(buf[16:], uint32(e.Type))
	le.PutUint32(buf[20:], e.Flags)
	le.PutUint32(buf[24:], math.Float32bits(e.Position.X))
	le.PutUint32(buf[28:], math.Float32bits(e.Position.Y))
	le.PutUint32(buf[32:], math.Float32bits(e.Position.Z))
	le.PutUint32(buf[36:], math.Float32bits(e.Orientation.W))
	le.PutUint32(buf[40:], math.Float32bits(e.Orientation.X))
	le.PutUint32(buf[44:], math.Float32bits(e.Orientation.Y))
	le.PutUint32(buf[48:], math.Float32bits(e.Orientation.Z))
	le.PutUint32(buf[52:], uint32(e.ExtraDataType))
	le.PutUint32(buf[56:], e.ExtraDataItems)
	le.PutUint32(buf[60:], e.ExtraDataMask)
	copy(buf[HeaderSize:], e.ExtraData)
	return buf
}

// FloatPayload builds a FloatArray payload for Encode.
func FloatPayload(values ...float32) (ExtraDataType, uint32, []byte) {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return ExtraDataFloatArray, uint32(len(values)), buf
}

// VectorPayload builds a Vector3Array payload for Encode.
func VectorPayload(values ...Vec3) (ExtraDataType, uint32, []byte) {
	buf := make([]byte, 12*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[12*i:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(buf[12*i+4:], math.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(buf[12*i+8:], math.Float32bits(v.Z))
	}
	return ExtraDataVector3Array, uint32(len(values)), buf
}

// WithPayload returns a copy of e carrying the given payload.
func (e TrackingEvent) WithPayload(t ExtraDataType, items uint32, data []byte) TrackingEvent {
	e.ExtraDataType = t
	e.ExtraDataItems = items
	e.ExtraData = data
	return e
}
