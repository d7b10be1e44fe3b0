package omicron

import (
	"encoding/binary"
	"math"
)

// HeaderSize is the length of the fixed part of every record.
const HeaderSize = 64

// Field identifies one header field of a TrackingEvent.
type Field uint16

const (
	FieldTimestamp Field = 1 << iota
	FieldSourceID
	FieldServiceID
	FieldServiceType
	FieldType
	FieldFlags
	FieldPosition
	FieldOrientation
	FieldExtraDataType
	FieldExtraDataItems
	FieldExtraDataMask

	allFields = FieldTimestamp | FieldSourceID | FieldServiceID | FieldServiceType |
		FieldType | FieldFlags | FieldPosition | FieldOrientation |
		FieldExtraDataType | FieldExtraDataItems | FieldExtraDataMask
)

// Vec3 is a position in tracker space (meters).
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Quat is an orientation quaternion as sent on the wire.
type Quat struct {
	W, X, Y, Z float32
}

// TrackingEvent is one decoded middleware record.
type TrackingEvent struct {
	Timestamp      uint32
	SourceID       uint32
	ServiceID      int32
	ServiceType    ServiceType
	Type           EventType
	Flags          uint32
	Position       Vec3
	Orientation    Quat
	ExtraDataType  ExtraDataType
	ExtraDataItems uint32
	ExtraDataMask  uint32
	ExtraData      []byte

	// Present records which header fields were read from the buffer.
	Present Field
}

// Has reports whether every field in f was decoded.
func (e TrackingEvent) Has(f Field) bool {
	return e.Present&f == f
}

// Complete reports whether the full header was decoded and the payload
// holds every byte the header announced.
func (e TrackingEvent) Complete() bool {
	return e.Has(allFields) && len(e.ExtraData) == e.ExtraDataSize()
}

// ExtraDataSize is the payload length announced by the header.
func (e TrackingEvent) ExtraDataSize() int {
	return ExtraDataSize(e.ExtraDataType, e.ExtraDataItems)
}

// Decode reads a record from buf. It never fails: fields that do not fit in
// buf are left zero and absent from Present, and the payload is cut to the
// bytes actually available.
func Decode(buf []byte) TrackingEvent {
	var e TrackingEvent
	r := newReader(buf)

	var ok bool
	if e.Timestamp, ok = r.uint32(); !ok {
		return e
	}
	e.Present |= FieldTimestamp
	if e.SourceID, ok = r.uint32(); !ok {
		return e
	}
	e.Present |= FieldSourceID
	if e.ServiceID, ok = r.int32(); !ok {
		return e
	}
	e.Present |= FieldServiceID

	v, ok := r.uint32()
	if !ok {
		return e
	}
	e.ServiceType = ServiceType(v)
	e.Present |= FieldServiceType

	if v, ok = r.uint32(); !ok {
		return e
	}
	e.Type = EventType(v)
	e.Present |= FieldType

	if e.Flags, ok = r.uint32(); !ok {
		return e
	}
	e.Present |= FieldFlags

	if !readFloats(r, &e.Position.X, &e.Position.Y, &e.Position.Z) {
		return e
	}
	e.Present |= FieldPosition

	if !readFloats(r, &e.Orientation.W, &e.Orientation.X, &e.Orientation.Y, &e.Orientation.Z) {
		return e
	}
	e.Present |= FieldOrientation

	if v, ok = r.uint32(); !ok {
		return e
	}
	e.ExtraDataType = ExtraDataType(v)
	e.Present |= FieldExtraDataType

	if e.ExtraDataItems, ok = r.uint32(); !ok {
		return e
	}
	e.Present |= FieldExtraDataItems

	if e.ExtraDataMask, ok = r.uint32(); !ok {
		return e
	}
	e.Present |= FieldExtraDataMask

	e.ExtraData = r.bytes(e.ExtraDataSize())
	return e
}

// readFloats fills every destination or none of them.
func readFloats(r *reader, dst ...*float32) bool {
	if r.remaining() < 4*len(dst) {
		return false
	}
	for _, d := range dst {
		*d, _ = r.float32()
	}
	return true
}

// Floats returns the complete float32 items of a FloatArray payload.
func (e TrackingEvent) Floats() []float32 {
	if e.ExtraDataType != ExtraDataFloatArray {
		return nil
	}
	out := make([]float32, 0, len(e.ExtraData)/4)
	for i := 0; i+4 <= len(e.ExtraData); i += 4 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(e.ExtraData[i:])))
	}
	return out
}

// Ints returns the complete int32 items of an IntArray payload.
func (e TrackingEvent) Ints() []int32 {
	if e.ExtraDataType != ExtraDataIntArray {
		return nil
	}
	out := make([]int32, 0, len(e.ExtraData)/4)
	for i := 0; i+4 <= len(e.ExtraData); i += 4 {
		out = append(out, int32(binary.LittleEndian.Uint32(e.ExtraData[i:])))
	}
	return out
}

// Vectors returns the complete items of a Vector3Array payload.
func (e TrackingEvent) Vectors() []Vec3 {
	if e.ExtraDataType != ExtraDataVector3Array {
		return nil
	}
	out := make([]Vec3, 0, len(e.ExtraData)/12)
	for i := 0; i+12 <= len(e.ExtraData); i += 12 {
		out = append(out, Vec3{
			X: math.Float32frombits(binary.LittleEndian.Uint32(e.ExtraData[i:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(e.ExtraData[i+4:])),
			Z: math.Float32frombits(binary.LittleEndian.Uint32(e.ExtraData[i+8:])),
		})
	}
	return out
}

// Text returns a String or KinectSpeech payload.
func (e TrackingEvent) Text() string {
	if e.ExtraDataType != ExtraDataString && e.ExtraDataType != ExtraDataKinectSpeech {
		return ""
	}
	return string(e.ExtraData)
}
