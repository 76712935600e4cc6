package attention

import "testing"

func TestHParamsParse(t *testing.T) {
	h := DefaultHParams()
	if err := h.Validate(); err != nil {
		t.Fatal(err)
	}
	if h.Normalization() != Exclusive {
		t.Error("default should be exclusive")
	}

	err := h.Parse("attention_filters=16, attention_kernel=7,attention_dim=64,smoothing=true")
	if err != nil {
		t.Fatal(err)
	}
	expected := HParams{
		NumUnits:         64,
		AttentionFilters: 16,
		AttentionKernel:  7,
		Smoothing:        true,
	}
	if h != expected {
		t.Errorf("expected %+v but got %+v", expected, h)
	}
	if h.Normalization() != Smoothing {
		t.Error("expected smoothing")
	}
}

func TestHParamsParseErrors(t *testing.T) {
	for _, overrides := range []string{
		"attention_heads=4",
		"attention_kernel",
		"attention_kernel=wide",
		"smoothing=maybe",
		"num_units=0",
		"attention_filters=-3",
	} {
		h := DefaultHParams()
		if err := h.Parse(overrides); err == nil {
			t.Errorf("%q: expected an error", overrides)
		}
	}

	h := DefaultHParams()
	if err := h.Parse(""); err != nil {
		t.Errorf("empty overrides: %v", err)
	}
	if h != DefaultHParams() {
		t.Error("empty overrides changed hyperparameters")
	}
}
