package attention

import (
	"errors"
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var l Linear
	serializer.RegisterTypedDeserializer(l.SerializerType(), DeserializeLinear)
}

// A Linear layer is a fully-connected layer without a
// bias term.
//
// Weights are stored as an OutCount x InCount matrix.
type Linear struct {
	InCount  int
	OutCount int
	Weights  *anydiff.Var
}

// NewLinear creates a Linear layer with Glorot-uniform
// weights.
func NewLinear(c anyvec.Creator, inCount, outCount int) *Linear {
	return &Linear{
		InCount:  inCount,
		OutCount: outCount,
		Weights:  anydiff.NewVar(glorotVector(c, inCount, outCount, inCount*outCount)),
	}
}

// DeserializeLinear deserializes a Linear.
func DeserializeLinear(d []byte) (*Linear, error) {
	var inCount, outCount serializer.Int
	var weights *anyvecsave.S
	err := serializer.DeserializeAny(d, &inCount, &outCount, &weights)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Linear", err)
	}
	res := Linear{
		InCount:  int(inCount),
		OutCount: int(outCount),
		Weights:  anydiff.NewVar(weights.Vector),
	}
	if res.Weights.Vector.Len() != res.InCount*res.OutCount {
		return nil, essentials.AddCtx("deserialize Linear",
			errors.New("weight count does not match dimensions"))
	}
	return &res, nil
}

// Apply applies the layer to a batch of n row vectors.
func (l *Linear) Apply(in anydiff.Res, n int) anydiff.Res {
	if in.Output().Len() != n*l.InCount {
		panic("input size mismatch")
	}
	inMat := &anydiff.Matrix{Data: in, Rows: n, Cols: l.InCount}
	weights := &anydiff.Matrix{Data: l.Weights, Rows: l.OutCount, Cols: l.InCount}
	return anydiff.MatMul(false, true, inMat, weights).Data
}

// Parameters returns the layer's parameters.
func (l *Linear) Parameters() []*anydiff.Var {
	return []*anydiff.Var{l.Weights}
}

// SerializerType returns the unique ID used to serialize
// a Linear with the serializer package.
func (l *Linear) SerializerType() string {
	return "github.com/CapstoneInha/Tacotron2-rehearsal.Linear"
}

// Serialize serializes a Linear.
func (l *Linear) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		serializer.Int(l.InCount),
		serializer.Int(l.OutCount),
		&anyvecsave.S{Vector: l.Weights.Vector},
	)
}

// glorotVector creates a vector of the given size with
// entries drawn uniformly from the Glorot range for a
// layer with the given fan-in and fan-out.
func glorotVector(c anyvec.Creator, fanIn, fanOut, size int) anyvec.Vector {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	res := c.MakeVector(size)
	anyvec.Rand(res, anyvec.Uniform, nil)
	res.Scale(c.MakeNumeric(2 * limit))
	res.AddScalar(c.MakeNumeric(-limit))
	return res
}
