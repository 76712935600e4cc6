package attention

import (
	"errors"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var h HybridScorer
	serializer.RegisterTypedDeserializer(h.SerializerType(), DeserializeHybridScorer)
}

// A HybridScorer computes content-based plus
// location-based energies, as described in
// https://arxiv.org/abs/1506.07503:
//
//	e[t] = dot(v_a, tanh(keys[t] + query + location[t]))
//
// V is the scoring vector v_a; it is shared by every
// timestep and batch row.
type HybridScorer struct {
	V *anydiff.Var
}

// NewHybridScorer creates a HybridScorer with a random
// scoring vector.
func NewHybridScorer(c anyvec.Creator, numUnits int) *HybridScorer {
	return &HybridScorer{
		V: anydiff.NewVar(glorotVector(c, numUnits, 1, numUnits)),
	}
}

// DeserializeHybridScorer deserializes a HybridScorer.
func DeserializeHybridScorer(d []byte) (*HybridScorer, error) {
	var v *anyvecsave.S
	if err := serializer.DeserializeAny(d, &v); err != nil {
		return nil, essentials.AddCtx("deserialize HybridScorer", err)
	}
	res := HybridScorer{V: anydiff.NewVar(v.Vector)}
	if res.V.Vector.Len() == 0 {
		return nil, essentials.AddCtx("deserialize HybridScorer",
			errors.New("empty scoring vector"))
	}
	return &res, nil
}

// NumUnits returns the size of the scoring space.
func (h *HybridScorer) NumUnits() int {
	return h.V.Vector.Len()
}

// Score computes energies for a batch of n rows.
//
// The query is a [n, numUnits] matrix of processed
// queries.
// The location features and keys are [n*maxTime, numUnits]
// matrices.
// The result is a [n, maxTime] matrix.
func (h *HybridScorer) Score(query, location, keys anydiff.Res, n, maxTime int) anydiff.Res {
	units := h.NumUnits()
	if query.Output().Len() != n*units {
		panic("processed query size mismatch")
	}
	if location.Output().Len() != n*maxTime*units || keys.Output().Len() != n*maxTime*units {
		panic("processed memory size mismatch")
	}
	c := query.Output().Creator()
	ones := &anydiff.Matrix{
		Data: anydiff.NewConst(fillVector(c, maxTime, 1)),
		Rows: maxTime,
		Cols: 1,
	}
	v := &anydiff.Matrix{Data: h.V, Rows: units, Cols: 1}
	sums := anydiff.Add(keys, location)

	energies := make([]anydiff.Res, n)
	for i := range energies {
		// Repeat the query along the time axis.
		q := &anydiff.Matrix{
			Data: anydiff.Slice(query, i*units, (i+1)*units),
			Rows: 1,
			Cols: units,
		}
		repeated := anydiff.MatMul(false, false, ones, q).Data
		rowSum := anydiff.Slice(sums, i*maxTime*units, (i+1)*maxTime*units)
		hidden := &anydiff.Matrix{
			Data: anydiff.Tanh(anydiff.Add(rowSum, repeated)),
			Rows: maxTime,
			Cols: units,
		}
		energies[i] = anydiff.MatMul(false, false, hidden, v).Data
	}
	return anydiff.Concat(energies...)
}

// Parameters returns the scoring vector.
func (h *HybridScorer) Parameters() []*anydiff.Var {
	return []*anydiff.Var{h.V}
}

// SerializerType returns the unique ID used to serialize
// a HybridScorer with the serializer package.
func (h *HybridScorer) SerializerType() string {
	return "github.com/CapstoneInha/Tacotron2-rehearsal.HybridScorer"
}

// Serialize serializes a HybridScorer.
func (h *HybridScorer) Serialize() ([]byte, error) {
	return serializer.SerializeAny(&anyvecsave.S{Vector: h.V.Vector})
}
