package attention

import (
	"errors"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var c LocationConv
	serializer.RegisterTypedDeserializer(c.SerializerType(), DeserializeLocationConv)
	var l LocationLayer
	serializer.RegisterTypedDeserializer(l.SerializerType(), DeserializeLocationLayer)
}

// A LocationConv is a 1-D convolution over alignment
// vectors with one input channel and no bias.
//
// The output has the same length as the input.
// Padding is split like TensorFlow's "same" padding, with
// the extra zero (for even kernels) on the right.
//
// Kernel is stored as a KernelSize x Filters matrix.
type LocationConv struct {
	Filters    int
	KernelSize int
	Kernel     *anydiff.Var
}

// NewLocationConv creates a LocationConv with a random
// kernel.
func NewLocationConv(c anyvec.Creator, filters, kernelSize int) *LocationConv {
	return &LocationConv{
		Filters:    filters,
		KernelSize: kernelSize,
		Kernel:     anydiff.NewVar(glorotVector(c, kernelSize, kernelSize*filters, kernelSize*filters)),
	}
}

// DeserializeLocationConv deserializes a LocationConv.
func DeserializeLocationConv(d []byte) (*LocationConv, error) {
	var filters, kernelSize serializer.Int
	var kernel *anyvecsave.S
	err := serializer.DeserializeAny(d, &filters, &kernelSize, &kernel)
	if err != nil {
		return nil, essentials.AddCtx("deserialize LocationConv", err)
	}
	res := LocationConv{
		Filters:    int(filters),
		KernelSize: int(kernelSize),
		Kernel:     anydiff.NewVar(kernel.Vector),
	}
	if res.Kernel.Vector.Len() != res.Filters*res.KernelSize {
		return nil, essentials.AddCtx("deserialize LocationConv",
			errors.New("kernel size does not match dimensions"))
	}
	return &res, nil
}

// Apply convolves a batch of n alignment rows, each of
// length maxTime.
//
// The result is a [n*maxTime, Filters] matrix.
func (l *LocationConv) Apply(alignments anydiff.Res, n, maxTime int) anydiff.Res {
	if alignments.Output().Len() != n*maxTime {
		panic("alignment size mismatch")
	}
	c := alignments.Output().Creator()
	padLeft := (l.KernelSize - 1) / 2
	padRight := l.KernelSize - 1 - padLeft
	kernel := &anydiff.Matrix{Data: l.Kernel, Rows: l.KernelSize, Cols: l.Filters}

	var rows []anydiff.Res
	for i := 0; i < n; i++ {
		row := anydiff.Slice(alignments, i*maxTime, (i+1)*maxTime)
		padded := padRow(c, row, padLeft, padRight)

		// Row k of the patch matrix is the padded input
		// shifted left by k.
		shifts := make([]anydiff.Res, l.KernelSize)
		for k := range shifts {
			shifts[k] = anydiff.Slice(padded, k, k+maxTime)
		}
		patches := &anydiff.Matrix{
			Data: anydiff.Concat(shifts...),
			Rows: l.KernelSize,
			Cols: maxTime,
		}
		rows = append(rows, anydiff.MatMul(true, false, patches, kernel).Data)
	}
	return anydiff.Concat(rows...)
}

// Parameters returns the convolution kernel.
func (l *LocationConv) Parameters() []*anydiff.Var {
	return []*anydiff.Var{l.Kernel}
}

// SerializerType returns the unique ID used to serialize
// a LocationConv with the serializer package.
func (l *LocationConv) SerializerType() string {
	return "github.com/CapstoneInha/Tacotron2-rehearsal.LocationConv"
}

// Serialize serializes a LocationConv.
func (l *LocationConv) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		serializer.Int(l.Filters),
		serializer.Int(l.KernelSize),
		&anyvecsave.S{Vector: l.Kernel.Vector},
	)
}

func padRow(c anyvec.Creator, row anydiff.Res, left, right int) anydiff.Res {
	parts := []anydiff.Res{}
	if left > 0 {
		parts = append(parts, anydiff.NewConst(c.MakeVector(left)))
	}
	parts = append(parts, row)
	if right > 0 {
		parts = append(parts, anydiff.NewConst(c.MakeVector(right)))
	}
	if len(parts) == 1 {
		return row
	}
	return anydiff.Concat(parts...)
}

// A LocationLayer turns previous alignments into location
// features by convolving them and projecting the filter
// outputs into the attention space.
type LocationLayer struct {
	Conv       *LocationConv
	Projection anynet.Layer
}

// NewLocationLayer creates a LocationLayer with random
// parameters.
func NewLocationLayer(c anyvec.Creator, filters, kernelSize, numUnits int) *LocationLayer {
	return &LocationLayer{
		Conv:       NewLocationConv(c, filters, kernelSize),
		Projection: NewLinear(c, filters, numUnits),
	}
}

// DeserializeLocationLayer deserializes a LocationLayer.
func DeserializeLocationLayer(d []byte) (*LocationLayer, error) {
	var res LocationLayer
	err := serializer.DeserializeAny(d, &res.Conv, &res.Projection)
	if err != nil {
		return nil, essentials.AddCtx("deserialize LocationLayer", err)
	}
	return &res, nil
}

// Apply computes location features for a batch of n
// previous alignments, each of length maxTime.
//
// The result is a [n*maxTime, numUnits] matrix.
func (l *LocationLayer) Apply(prev anydiff.Res, n, maxTime int) anydiff.Res {
	f := l.Conv.Apply(prev, n, maxTime)
	return l.Projection.Apply(f, n*maxTime)
}

// Parameters returns the parameters of the convolution
// and the projection.
func (l *LocationLayer) Parameters() []*anydiff.Var {
	res := l.Conv.Parameters()
	if p, ok := l.Projection.(anynet.Parameterizer); ok {
		res = append(res, p.Parameters()...)
	}
	return res
}

// SerializerType returns the unique ID used to serialize
// a LocationLayer with the serializer package.
func (l *LocationLayer) SerializerType() string {
	return "github.com/CapstoneInha/Tacotron2-rehearsal.LocationLayer"
}

// Serialize serializes a LocationLayer.
//
// The projection must be serializable.
func (l *LocationLayer) Serialize() ([]byte, error) {
	return serializer.SerializeAny(l.Conv, l.Projection)
}
