package holodetect

import "github.com/x448/float16"

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// NewTensorFloat16 creates a float32 tensor from half precision data as
// produced by GPU inference backends reading back their output buffers
func NewTensorFloat16(shape []int, half []uint16) (*Tensor, error) {

	data := make([]float32, len(half))

	for i, h := range half {
		data[i] = f16LookupTable[h]
	}

	return NewTensor(shape, data)
}

// ToFloat16 converts the tensor contents to half precision bits
func (t *Tensor) ToFloat16() []uint16 {

	half := make([]uint16, len(t.Data))

	for i, v := range t.Data {
		half[i] = float16.Fromfloat32(v).Bits()
	}

	return half
}
