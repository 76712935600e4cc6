package attention

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// Normalization selects how energies are turned into
// alignments.
type Normalization int

const (
	// Exclusive normalization applies a softmax over the
	// valid timesteps of each row, so timesteps compete
	// for probability mass.
	Exclusive Normalization = iota

	// Smoothing normalization divides the sigmoid of each
	// energy by the sum of sigmoids in its row, which lets
	// several timesteps receive high weight at once.
	// See https://arxiv.org/abs/1506.07503.
	Smoothing
)

// String returns a human-readable name for n.
func (n Normalization) String() string {
	switch n {
	case Exclusive:
		return "exclusive"
	case Smoothing:
		return "smoothing"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

// Apply normalizes a [len(lengths), maxTime] matrix of
// energies.
//
// Timesteps at or past a row's length get exactly zero
// weight.
// A row with a length of zero is all zeros.
// If lengths is nil, every timestep is valid.
//
// The previous alignments are accepted so that
// normalizers may depend on them; neither built-in
// normalizer does.
func (n Normalization) Apply(energy, prev anydiff.Res, lengths []int, maxTime int) anydiff.Res {
	var f func(e anydiff.Res, size int) anydiff.Res
	switch n {
	case Exclusive:
		f = softmax
	case Smoothing:
		f = smoothingNormalize
	default:
		panic("unknown normalization: " + n.String())
	}

	batch := energy.Output().Len() / maxTime
	if lengths != nil && len(lengths) != batch {
		panic("sequence length count does not match batch size")
	}
	c := energy.Output().Creator()
	rows := make([]anydiff.Res, batch)
	for i := range rows {
		length := maxTime
		if lengths != nil {
			length = clampLength(lengths[i], maxTime)
		}
		if length == 0 {
			rows[i] = anydiff.NewConst(c.MakeVector(maxTime))
			continue
		}
		valid := anydiff.Slice(energy, i*maxTime, i*maxTime+length)
		probs := f(valid, length)
		if length < maxTime {
			probs = anydiff.Concat(probs, anydiff.NewConst(c.MakeVector(maxTime-length)))
		}
		rows[i] = probs
	}
	return anydiff.Concat(rows...)
}

// softmax computes the softmax of a vector, shifting by
// the maximum component first for numerical stability.
func softmax(e anydiff.Res, size int) anydiff.Res {
	c := e.Output().Creator()
	shift := c.MakeVector(size)
	shift.AddScalar(anyvec.Max(e.Output()))
	shift.Scale(c.MakeNumeric(-1))
	exps := anydiff.Exp(anydiff.Add(e, anydiff.NewConst(shift)))
	return divideBySum(exps, size)
}

// smoothingNormalize computes sigmoid(e) / sum(sigmoid(e)).
func smoothingNormalize(e anydiff.Res, size int) anydiff.Res {
	return divideBySum(anydiff.Sigmoid(e), size)
}

// divideBySum scales a vector so that its components sum
// to 1.
func divideBySum(v anydiff.Res, size int) anydiff.Res {
	c := v.Output().Creator()
	ones := anydiff.NewConst(fillVector(c, size, 1))
	sum := anydiff.MatMul(false, false,
		&anydiff.Matrix{Data: v, Rows: 1, Cols: size},
		&anydiff.Matrix{Data: ones, Rows: size, Cols: 1},
	)
	repeated := anydiff.MatMul(false, false,
		&anydiff.Matrix{Data: ones, Rows: size, Cols: 1},
		sum,
	)
	return anydiff.Div(v, repeated.Data)
}

func clampLength(l, maxTime int) int {
	if l > maxTime {
		return maxTime
	} else if l < 0 {
		return 0
	}
	return l
}
