package provider

import (
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
)

// StructuredOutput asks the model to format its answer according to a
// JSON schema.
type StructuredOutput struct {
	// Name identifies this output format
	Name string

	// Description explains the purpose and usage of this format
	Description string

	// Schema defines the JSON structure that responses should follow
	Schema *jsonschema.Schema
}

// CallOptions carries the per-call tuning knobs of a model invocation.
// They ride along in the begin event payload so handlers can reconstruct
// the exact request.
type CallOptions struct {
	// Temperature of the sampling. Zero means provider default.
	Temperature float64

	// MaxTokens caps the generated output. Zero means provider default.
	MaxTokens int

	// Schema, when set, requests structured output.
	Schema *StructuredOutput

	// Extra holds provider-specific parameters that have no first-class
	// field. Keys are provider-defined.
	Extra map[string]any
}

// CallOption configures a single invocation.
type CallOption = opts.Option[CallOptions]

var (
	// WithTemperature sets the sampling temperature.
	WithTemperature = opts.ForName[CallOptions, float64]("Temperature")

	// WithMaxTokens caps the output token budget.
	WithMaxTokens = opts.ForName[CallOptions, int]("MaxTokens")

	// WithSchema requests structured output following the given schema.
	WithSchema = opts.ForName[CallOptions, *StructuredOutput]("Schema")
)

// WithExtra attaches a provider-specific parameter to the call.
func WithExtra(key string, value any) CallOption {
	return opts.Type[CallOptions](func(o *CallOptions) error {
		if o.Extra == nil {
			o.Extra = make(map[string]any)
		}
		o.Extra[key] = value
		return nil
	})
}

// NewCallOptions folds the given options into a CallOptions value.
func NewCallOptions(options ...CallOption) (CallOptions, error) {
	var o CallOptions
	if err := opts.Apply(&o, options); err != nil {
		return CallOptions{}, err
	}
	return o, nil
}
