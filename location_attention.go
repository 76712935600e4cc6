package attention

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
)

// LocationSensitive is a hybrid (content-based plus
// location-based) attention mechanism bound to one batch
// of memory, as described in
// https://arxiv.org/abs/1506.07503.
//
// At every decoding step, the previous alignments are
// convolved into location features, which are scored
// together with the processed query and the keys.
// The resulting alignments are also the next state.
//
// Keys are computed once, when the mechanism is created,
// and reused by every step.
type LocationSensitive struct {
	Base     Base
	Location *LocationLayer
	Scorer   *HybridScorer
	Memory   *Memory

	keys   anydiff.Res
	values anydiff.Res
}

// NewLocationSensitive binds a mechanism to a memory.
//
// The location layer and scorer are taken from p; the
// query and key projections come from base.
func NewLocationSensitive(base Base, p *Params, m *Memory) *LocationSensitive {
	values := base.MaskMemory(m)
	return &LocationSensitive{
		Base:     base,
		Location: p.Location,
		Scorer:   p.Scorer,
		Memory:   m,
		keys:     base.ProcessKeys(values, m),
		values:   values,
	}
}

// NewLocationSensitiveFromHParams creates the Bahdanau
// base described by p and h and binds it to m.
func NewLocationSensitiveFromHParams(p *Params, h HParams, m *Memory) *LocationSensitive {
	return NewLocationSensitive(NewBahdanau(p, h), p, m)
}

// Keys returns the processed memory, a
// [batch*maxTime, numUnits] matrix.
func (l *LocationSensitive) Keys() anydiff.Res {
	return l.keys
}

// Values returns the masked memory values.
func (l *LocationSensitive) Values() anydiff.Res {
	return l.values
}

// Step computes the alignments for one decoding step.
//
// The query is a [batch, queryDepth] matrix and prev is
// the [batch, maxTime] state from the previous step.
// The returned state is the same as the alignments.
func (l *LocationSensitive) Step(query, prev anydiff.Res) (alignments, next anydiff.Res) {
	m := l.Memory
	if prev.Output().Len() != m.Batch*m.MaxTime {
		panic("previous alignment size mismatch")
	}
	processedQuery := l.Base.ProcessQuery(query, m.Batch)
	locFeatures := l.Location.Apply(prev, m.Batch, m.MaxTime)
	energy := l.Scorer.Score(processedQuery, locFeatures, l.keys, m.Batch, m.MaxTime)
	alignments = l.Base.Probabilities(energy, prev, m)
	return alignments, alignments
}

// Context computes the alignment-weighted sum of the
// memory values in each row, producing a [batch, depth]
// matrix.
func (l *LocationSensitive) Context(alignments anydiff.Res) anydiff.Res {
	m := l.Memory
	if alignments.Output().Len() != m.Batch*m.MaxTime {
		panic("alignment size mismatch")
	}
	rows := make([]anydiff.Res, m.Batch)
	for i := range rows {
		weights := &anydiff.Matrix{
			Data: anydiff.Slice(alignments, i*m.MaxTime, (i+1)*m.MaxTime),
			Rows: 1,
			Cols: m.MaxTime,
		}
		values := &anydiff.Matrix{
			Data: anydiff.Slice(l.values, i*m.MaxTime*m.Depth, (i+1)*m.MaxTime*m.Depth),
			Rows: m.MaxTime,
			Cols: m.Depth,
		}
		rows[i] = anydiff.MatMul(false, false, weights, values).Data
	}
	return anydiff.Concat(rows...)
}

// Parameters returns the parameters used by the location
// features and the scorer, plus those of the base if it
// is an anynet.Parameterizer.
func (l *LocationSensitive) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	if p, ok := l.Base.(anynet.Parameterizer); ok {
		res = append(res, p.Parameters()...)
	}
	res = append(res, l.Location.Parameters()...)
	return append(res, l.Scorer.Parameters()...)
}
