package pcm

import (
	"encoding/binary"
	"math"
)

// EncodeSamples writes src into dst in the given wire format,
// little-endian for the multi-byte formats. dst must hold at least
// len(src)*f.Bytes() bytes.
func EncodeSamples(f Format, dst []byte, src []float32) {
	switch f {
	case Float32:
		for i, x := range src {
			binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(x))
		}
	case Int32:
		for i, x := range src {
			binary.LittleEndian.PutUint32(dst[4*i:], uint32(Float32ToInt32(x)))
		}
	case Int16:
		for i, x := range src {
			binary.LittleEndian.PutUint16(dst[2*i:], uint16(Float32ToInt16(x)))
		}
	case Int8:
		for i, x := range src {
			dst[i] = byte(Float32ToInt8(x))
		}
	case UInt8:
		for i, x := range src {
			dst[i] = Float32ToUInt8(x)
		}
	}
}

// DecodeSamples fills dst from the wire-format bytes in src. src must
// hold at least len(dst)*f.Bytes() bytes.
func DecodeSamples(f Format, dst []float32, src []byte) {
	switch f {
	case Float32:
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
		}
	case Int32:
		for i := range dst {
			dst[i] = Int32ToFloat32(int32(binary.LittleEndian.Uint32(src[4*i:])))
		}
	case Int16:
		for i := range dst {
			dst[i] = Int16ToFloat32(int16(binary.LittleEndian.Uint16(src[2*i:])))
		}
	case Int8:
		for i := range dst {
			dst[i] = Int8ToFloat32(int8(src[i]))
		}
	case UInt8:
		for i := range dst {
			dst[i] = UInt8ToFloat32(src[i])
		}
	}
}
