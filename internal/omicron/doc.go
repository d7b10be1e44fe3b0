// Package omicron decodes the binary event stream produced by the tracking
// middleware (touch frames, wands, motion capture) and builds the text lines
// used on its control channel.
//
// Every record is a fixed 64-byte little-endian header followed by an
// optional extra-data payload whose length is implied by the header's
// extra-data type and item count:
//
//	offset  size  field
//	0       4     timestamp        (uint32)
//	4       4     source id        (uint32)
//	8       4     service id       (int32)
//	12      4     service type     (uint32)
//	16      4     event type       (uint32)
//	20      4     flags            (uint32)
//	24      12    position x,y,z   (float32)
//	36      16    orientation w,x,y,z (float32)
//	52      4     extra data type  (uint32)
//	56      4     extra data items (uint32)
//	60      4     extra data mask  (uint32)
//	64      n     extra data
//
// Decoding is best effort. UDP delivery can truncate a datagram, so a short
// buffer produces an event holding the fields that fit instead of an error.
package omicron
