package attention

import (
	"testing"

	"github.com/unixpickle/anydiff"
)

func TestLocationConv(t *testing.T) {
	c := testCreator
	for _, kernelSize := range []int{1, 3, 4} {
		conv := &LocationConv{
			Filters:    2,
			KernelSize: kernelSize,
			Kernel:     patternVar(c, kernelSize*2, 0.3, 1),
		}
		in := []float64{0.5, 0.25, 0, 0.25, 1, 0, 0, 0}
		actual := vectorFloats(conv.Apply(anydiff.NewConst(makeVector(c, in)), 2, 4).Output())

		kernel := vectorFloats(conv.Kernel.Vector)
		padLeft := (kernelSize - 1) / 2
		var expected []float64
		for row := 0; row < 2; row++ {
			for i := 0; i < 4; i++ {
				for f := 0; f < 2; f++ {
					var sum float64
					for k := 0; k < kernelSize; k++ {
						idx := i + k - padLeft
						if idx >= 0 && idx < 4 {
							sum += in[row*4+idx] * kernel[k*2+f]
						}
					}
					expected = append(expected, sum)
				}
			}
		}
		if !floatsClose(actual, expected, 1e-5) {
			t.Errorf("kernel %d: expected %v but got %v", kernelSize, expected, actual)
		}
	}
}

func TestLinear(t *testing.T) {
	c := testCreator
	l := &Linear{
		InCount:  2,
		OutCount: 3,
		Weights:  anydiff.NewVar(makeVector(c, []float64{1, 2, -1, 0.5, 0, 3})),
	}
	in := anydiff.NewConst(makeVector(c, []float64{1, -1, 2, 0.5}))
	actual := vectorFloats(l.Apply(in, 2).Output())
	expected := []float64{-1, -1.5, -3, 3, -1.75, 1.5}
	if !floatsClose(actual, expected, 1e-5) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
}

func TestLocationLayerShape(t *testing.T) {
	c := testCreator
	l := NewLocationLayer(c, 4, 3, 8)
	prev := InitialAlignments(c, 2, 5)
	if n := l.Apply(prev, 2, 5).Output().Len(); n != 2*5*8 {
		t.Errorf("expected %d outputs but got %d", 2*5*8, n)
	}
	if n := len(l.Parameters()); n != 2 {
		t.Errorf("expected 2 parameters but got %d", n)
	}
}

func TestLocationLayerSerialize(t *testing.T) {
	c := testCreator
	l := NewLocationLayer(c, 3, 5, 4)
	data, err := l.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	l1, err := DeserializeLocationLayer(data)
	if err != nil {
		t.Fatal(err)
	}
	prev := FirstFocusAlignments(c, 1, 6)
	expected := vectorFloats(l.Apply(prev, 1, 6).Output())
	actual := vectorFloats(l1.Apply(prev, 1, 6).Output())
	if !floatsClose(actual, expected, 0) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
}
