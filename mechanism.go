package attention

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
)

// A Base provides the parts of an additive attention
// mechanism that do not depend on the previous alignment.
type Base interface {
	// ProcessQuery maps a [batch, queryDepth] matrix of
	// queries to a [batch, numUnits] matrix.
	ProcessQuery(query anydiff.Res, batch int) anydiff.Res

	// MaskMemory zeros the memory values of every
	// timestep past its row's length.
	MaskMemory(m *Memory) anydiff.Res

	// ProcessKeys maps the masked memory values of m to
	// a [batch*maxTime, numUnits] matrix of keys.
	// It is called once per memory.
	ProcessKeys(masked anydiff.Res, m *Memory) anydiff.Res

	// Probabilities turns a [batch, maxTime] matrix of
	// energies into alignments, giving zero weight to
	// timesteps past each row's length.
	Probabilities(energy, prev anydiff.Res, m *Memory) anydiff.Res
}

// Bahdanau is the Base used by additive attention in the
// style of https://arxiv.org/abs/1409.0473.
type Bahdanau struct {
	// QueryLayer projects queries.
	// If it is nil, queries are used as-is.
	QueryLayer anynet.Layer

	// MemoryLayer projects memory values into keys.
	MemoryLayer anynet.Layer

	Norm Normalization
}

// NewBahdanau creates a Bahdanau base which uses the
// projections in p and the normalization selected by h.
func NewBahdanau(p *Params, h HParams) *Bahdanau {
	res := &Bahdanau{
		MemoryLayer: p.Memory,
		Norm:        h.Normalization(),
	}
	// Avoid storing a typed nil in the interface.
	if p.Query != nil {
		res.QueryLayer = p.Query
	}
	return res
}

// ProcessQuery applies the query layer, if there is one.
func (b *Bahdanau) ProcessQuery(query anydiff.Res, batch int) anydiff.Res {
	if b.QueryLayer == nil {
		return query
	}
	return b.QueryLayer.Apply(query, batch)
}

// MaskMemory multiplies the memory by its sequence mask.
//
// If the memory has no lengths, the values are returned
// unchanged.
func (b *Bahdanau) MaskMemory(m *Memory) anydiff.Res {
	if m.Lengths == nil {
		return m.Values
	}
	mask := depthMask(m.Creator(), m.Lengths, m.MaxTime, m.Depth)
	return anydiff.Mul(m.Values, anydiff.NewConst(mask))
}

// ProcessKeys applies the memory layer to the masked
// memory.
func (b *Bahdanau) ProcessKeys(masked anydiff.Res, m *Memory) anydiff.Res {
	return b.MemoryLayer.Apply(masked, m.Batch*m.MaxTime)
}

// Probabilities applies b.Norm using the lengths of m.
func (b *Bahdanau) Probabilities(energy, prev anydiff.Res, m *Memory) anydiff.Res {
	return b.Norm.Apply(energy, prev, m.Lengths, m.MaxTime)
}

// Parameters returns the parameters of the query and
// memory layers.
func (b *Bahdanau) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, l := range []anynet.Layer{b.QueryLayer, b.MemoryLayer} {
		if p, ok := l.(anynet.Parameterizer); ok {
			res = append(res, p.Parameters()...)
		}
	}
	return res
}
