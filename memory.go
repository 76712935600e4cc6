package attention

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// Memory is a batch of encoded source sequences which an
// attention mechanism attends over.
//
// Values is a row-major [Batch, MaxTime, Depth] tensor.
type Memory struct {
	Values  anydiff.Res
	Batch   int
	MaxTime int
	Depth   int

	// Lengths optionally stores the number of valid
	// timesteps in each batch row.
	// If it is nil, every timestep is valid.
	Lengths []int
}

// NewMemory creates a Memory and checks that the values
// have the expected size.
//
// The lengths may be nil.
func NewMemory(values anydiff.Res, batch, maxTime, depth int, lengths []int) *Memory {
	if values.Output().Len() != batch*maxTime*depth {
		panic("memory size does not match dimensions")
	}
	if lengths != nil && len(lengths) != batch {
		panic("sequence length count does not match batch size")
	}
	return &Memory{
		Values:  values,
		Batch:   batch,
		MaxTime: maxTime,
		Depth:   depth,
		Lengths: lengths,
	}
}

// Creator returns the creator of the memory values.
func (m *Memory) Creator() anyvec.Creator {
	return m.Values.Output().Creator()
}

// Length returns the number of valid timesteps in the
// given batch row, clamped to [0, MaxTime].
func (m *Memory) Length(row int) int {
	if m.Lengths == nil {
		return m.MaxTime
	}
	return clampLength(m.Lengths[row], m.MaxTime)
}

// SequenceMask creates a [len(lengths), maxTime] vector
// with a 1 at every valid position and a 0 elsewhere.
func SequenceMask(c anyvec.Creator, lengths []int, maxTime int) anyvec.Vector {
	return depthMask(c, lengths, maxTime, 1)
}

// depthMask is like SequenceMask, but each timestep
// covers depth consecutive components.
func depthMask(c anyvec.Creator, lengths []int, maxTime, depth int) anyvec.Vector {
	data := make([]float64, len(lengths)*maxTime*depth)
	for i, l := range lengths {
		start := i * maxTime * depth
		end := start + clampLength(l, maxTime)*depth
		for j := start; j < end; j++ {
			data[j] = 1
		}
	}
	return c.MakeVectorData(c.MakeNumericList(data))
}

// InitialAlignments returns an all-zero alignment state,
// which is how decoders usually start.
func InitialAlignments(c anyvec.Creator, batch, maxTime int) anydiff.Res {
	return anydiff.NewConst(c.MakeVector(batch * maxTime))
}

// FirstFocusAlignments returns an alignment state which
// puts all of the weight on the first timestep.
func FirstFocusAlignments(c anyvec.Creator, batch, maxTime int) anydiff.Res {
	data := make([]float64, batch*maxTime)
	for i := 0; i < batch; i++ {
		data[i*maxTime] = 1
	}
	return anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(data)))
}

// fillVector creates a vector of the given size with
// every component set to x.
func fillVector(c anyvec.Creator, size int, x float64) anyvec.Vector {
	res := c.MakeVector(size)
	if x != 0 {
		res.AddScalar(c.MakeNumeric(x))
	}
	return res
}
