package pcm

// Format identifies the sample element type a caller exchanges with a
// session facade. The transfer layer itself always runs float32; the
// integer formats are converted at the facade boundary.
type Format int

const (
	Float32 Format = iota
	Int32
	Int16
	Int8
	UInt8
)

func (f Format) String() string {
	switch f {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Int16:
		return "int16"
	case Int8:
		return "int8"
	case UInt8:
		return "uint8"
	}
	return "unknown"
}

// Bytes returns the size of one sample of this format.
func (f Format) Bytes() int {
	switch f {
	case Float32, Int32:
		return 4
	case Int16:
		return 2
	case Int8, UInt8:
		return 1
	}
	return 0
}

func clamp(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// Float32ToInt16 converts one sample, clamping to [-1, 1].
// 32767 is used for the positive extreme to avoid overflow.
func Float32ToInt16(x float32) int16 {
	return int16(clamp(x) * 32767.0)
}

// Int16ToFloat32 converts one sample into [-1, 1].
func Int16ToFloat32(x int16) float32 {
	return float32(x) / 32768.0
}

// Float32ToInt32 converts one sample, clamping to [-1, 1].
func Float32ToInt32(x float32) int32 {
	return int32(clamp(x) * 2147483647.0)
}

// Int32ToFloat32 converts one sample into [-1, 1].
func Int32ToFloat32(x int32) float32 {
	return float32(float64(x) / 2147483648.0)
}

// Float32ToInt8 converts one sample, clamping to [-1, 1].
func Float32ToInt8(x float32) int8 {
	return int8(clamp(x) * 127.0)
}

// Int8ToFloat32 converts one sample into [-1, 1].
func Int8ToFloat32(x int8) float32 {
	return float32(x) / 128.0
}

// Float32ToUInt8 converts one sample, clamping to [-1, 1]. UInt8 audio
// is offset-binary with silence at 128.
func Float32ToUInt8(x float32) uint8 {
	return uint8(int16(clamp(x)*127.0) + 128)
}

// UInt8ToFloat32 converts one offset-binary sample into [-1, 1].
func UInt8ToFloat32(x uint8) float32 {
	return (float32(x) - 128.0) / 128.0
}
