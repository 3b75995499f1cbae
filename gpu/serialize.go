package gpu

import (
	"encoding/binary"
	"math"
)

// Byte serialization helpers for packing uniform and instance buffers.
// All GPU-visible data is little-endian.

// WriteFloat32 writes a float32 at off and returns the next offset.
func WriteFloat32(buf []byte, off int, v float32) int {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	return off + 4
}

// WriteUint32 writes a uint32 at off and returns the next offset.
func WriteUint32(buf []byte, off int, v uint32) int {
	binary.LittleEndian.PutUint32(buf[off:], v)
	return off + 4
}

// WriteInt32 writes an int32 at off and returns the next offset.
func WriteInt32(buf []byte, off int, v int32) int {
	binary.LittleEndian.PutUint32(buf[off:], uint32(v))
	return off + 4
}

// ReadFloat32 reads the float32 at off.
func ReadFloat32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

// ReadUint32 reads the uint32 at off.
func ReadUint32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}
