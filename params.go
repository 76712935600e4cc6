package attention

import (
	"errors"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var p Params
	serializer.RegisterTypedDeserializer(p.SerializerType(), DeserializeParams)
}

// Params stores every learned tensor of a location
// sensitive attention mechanism.
//
// A Params is created once by the code that builds a
// model and is shared by reference with every mechanism
// that uses it.
type Params struct {
	// Query projects decoder queries into the attention
	// space.
	// It may be nil if queries are already in that space,
	// but then the Params cannot be serialized.
	Query *Linear

	// Memory projects memory values into keys.
	Memory *Linear

	Location *LocationLayer
	Scorer   *HybridScorer
}

// NewParams creates randomly initialized parameters.
//
// It panics if h is invalid.
func NewParams(c anyvec.Creator, h HParams, queryDepth, memoryDepth int) *Params {
	if err := h.Validate(); err != nil {
		panic(err)
	}
	return &Params{
		Query:    NewLinear(c, queryDepth, h.NumUnits),
		Memory:   NewLinear(c, memoryDepth, h.NumUnits),
		Location: NewLocationLayer(c, h.AttentionFilters, h.AttentionKernel, h.NumUnits),
		Scorer:   NewHybridScorer(c, h.NumUnits),
	}
}

// DeserializeParams deserializes a Params.
func DeserializeParams(d []byte) (*Params, error) {
	var res Params
	err := serializer.DeserializeAny(d, &res.Query, &res.Memory, &res.Location, &res.Scorer)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Params", err)
	}
	return &res, nil
}

// NumUnits returns the size of the attention space.
func (p *Params) NumUnits() int {
	return p.Scorer.NumUnits()
}

// Parameters returns every learned variable.
func (p *Params) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	if p.Query != nil {
		res = append(res, p.Query.Parameters()...)
	}
	res = append(res, p.Memory.Parameters()...)
	res = append(res, p.Location.Parameters()...)
	res = append(res, p.Scorer.Parameters()...)
	return res
}

// SerializerType returns the unique ID used to serialize
// a Params with the serializer package.
func (p *Params) SerializerType() string {
	return "github.com/CapstoneInha/Tacotron2-rehearsal.Params"
}

// Serialize serializes the Params.
func (p *Params) Serialize() ([]byte, error) {
	if p.Query == nil {
		return nil, errors.New("serialize Params: missing query layer")
	}
	return serializer.SerializeAny(p.Query, p.Memory, p.Location, p.Scorer)
}
