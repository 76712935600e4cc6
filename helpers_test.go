package attention

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
)

var testCreator = anyvec32.DefaultCreator{}

func makeVector(c anyvec.Creator, data []float64) anyvec.Vector {
	return c.MakeVectorData(c.MakeNumericList(data))
}

// patternFloats produces deterministic, roughly uniform
// values in [-scale, scale].
func patternFloats(n int, offset, scale float64) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = math.Sin(float64(i)*0.37+offset) * scale
	}
	return res
}

func patternVar(c anyvec.Creator, n int, offset, scale float64) *anydiff.Var {
	return anydiff.NewVar(makeVector(c, patternFloats(n, offset, scale)))
}

// patternParams creates deterministic parameters.
func patternParams(c anyvec.Creator, queryDepth, memDepth, units, filters, kernel int) *Params {
	return &Params{
		Query: &Linear{
			InCount:  queryDepth,
			OutCount: units,
			Weights:  patternVar(c, units*queryDepth, 0.1, 0.5),
		},
		Memory: &Linear{
			InCount:  memDepth,
			OutCount: units,
			Weights:  patternVar(c, units*memDepth, 0.2, 0.5),
		},
		Location: &LocationLayer{
			Conv: &LocationConv{
				Filters:    filters,
				KernelSize: kernel,
				Kernel:     patternVar(c, kernel*filters, 0.3, 0.8),
			},
			Projection: &Linear{
				InCount:  filters,
				OutCount: units,
				Weights:  patternVar(c, units*filters, 0.4, 0.5),
			},
		},
		Scorer: &HybridScorer{V: patternVar(c, units, 0.5, 1)},
	}
}

// vectorFloats copies the components of a vector into a
// []float64.
func vectorFloats(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float64:
		return data
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	default:
		panic("unsupported numeric type")
	}
}

func floatsClose(actual, expected []float64, prec float64) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, x := range expected {
		if math.IsNaN(actual[i]) || math.Abs(actual[i]-x) > prec {
			return false
		}
	}
	return true
}

// referenceAlignments computes alignments with plain
// loops, independently of anydiff.
func referenceAlignments(p *Params, norm Normalization, mem []float64, lengths []int,
	query, prev []float64, batch, maxTime int) []float64 {
	units := p.NumUnits()
	qDepth := p.Query.InCount
	mDepth := p.Memory.InCount
	conv := p.Location.Conv
	proj := p.Location.Projection.(*Linear)

	wq := vectorFloats(p.Query.Weights.Vector)
	wm := vectorFloats(p.Memory.Weights.Vector)
	wk := vectorFloats(conv.Kernel.Vector)
	wl := vectorFloats(proj.Weights.Vector)
	v := vectorFloats(p.Scorer.V.Vector)

	var res []float64
	for b := 0; b < batch; b++ {
		length := maxTime
		if lengths != nil {
			length = lengths[b]
		}
		pq := make([]float64, units)
		for u := range pq {
			for j := 0; j < qDepth; j++ {
				pq[u] += wq[u*qDepth+j] * query[b*qDepth+j]
			}
		}
		padLeft := (conv.KernelSize - 1) / 2
		energy := make([]float64, length)
		for t := range energy {
			filters := make([]float64, conv.Filters)
			for f := range filters {
				for k := 0; k < conv.KernelSize; k++ {
					idx := t + k - padLeft
					if idx >= 0 && idx < maxTime {
						filters[f] += prev[b*maxTime+idx] * wk[k*conv.Filters+f]
					}
				}
			}
			for u := 0; u < units; u++ {
				var key, loc float64
				for d := 0; d < mDepth; d++ {
					key += wm[u*mDepth+d] * mem[(b*maxTime+t)*mDepth+d]
				}
				for f, x := range filters {
					loc += wl[u*conv.Filters+f] * x
				}
				energy[t] += v[u] * math.Tanh(key+pq[u]+loc)
			}
		}
		probs := make([]float64, maxTime)
		var sum float64
		for t, e := range energy {
			if norm == Smoothing {
				probs[t] = 1 / (1 + math.Exp(-e))
			} else {
				probs[t] = math.Exp(e)
			}
			sum += probs[t]
		}
		for t := range energy {
			probs[t] /= sum
		}
		res = append(res, probs...)
	}
	return res
}
