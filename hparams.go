package attention

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/unixpickle/essentials"
)

// HParams stores the hyperparameters of a location
// sensitive attention mechanism.
type HParams struct {
	// NumUnits is the size of the space in which queries,
	// keys and location features are compared.
	NumUnits int

	// AttentionFilters is the number of location
	// convolution filters.
	AttentionFilters int

	// AttentionKernel is the width of the location
	// convolution.
	AttentionKernel int

	// Smoothing selects Smoothing normalization instead of
	// Exclusive normalization.
	Smoothing bool
}

// DefaultHParams returns the Tacotron 2 attention
// hyperparameters.
func DefaultHParams() HParams {
	return HParams{
		NumUnits:         128,
		AttentionFilters: 32,
		AttentionKernel:  31,
	}
}

// Normalization returns the normalization selected by
// h.Smoothing.
func (h HParams) Normalization() Normalization {
	if h.Smoothing {
		return Smoothing
	}
	return Exclusive
}

// Validate checks that every size is positive.
func (h HParams) Validate() error {
	for _, x := range []struct {
		name  string
		value int
	}{
		{"num_units", h.NumUnits},
		{"attention_filters", h.AttentionFilters},
		{"attention_kernel", h.AttentionKernel},
	} {
		if x.value <= 0 {
			return fmt.Errorf("%s must be positive (got %d)", x.name, x.value)
		}
	}
	return nil
}

// Parse applies a comma-separated list of overrides like
// "attention_filters=16,smoothing=true".
//
// Recognized names are num_units (alias attention_dim),
// attention_filters, attention_kernel and smoothing.
// The result is validated after all overrides are set.
func (h *HParams) Parse(overrides string) error {
	for _, item := range strings.Split(overrides, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			return essentials.AddCtx("parse hparams", fmt.Errorf("missing value in %q", item))
		}
		name, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if err := h.set(name, value); err != nil {
			return essentials.AddCtx("parse hparams", err)
		}
	}
	if err := h.Validate(); err != nil {
		return essentials.AddCtx("parse hparams", err)
	}
	return nil
}

func (h *HParams) set(name, value string) error {
	if name == "smoothing" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return essentials.AddCtx(name, err)
		}
		h.Smoothing = b
		return nil
	}

	var field *int
	switch name {
	case "num_units", "attention_dim":
		field = &h.NumUnits
	case "attention_filters":
		field = &h.AttentionFilters
	case "attention_kernel":
		field = &h.AttentionKernel
	default:
		return errors.New("unknown hyperparameter: " + name)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return essentials.AddCtx(name, err)
	}
	*field = n
	return nil
}
