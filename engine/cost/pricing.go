package cost

// ModelPricing is the per-million-token rate for one model.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
	Currency         string
}

// PricingTable maps a model name to its rate card. Models absent from the
// table price at zero, per the spec's "unknown model ⇒ cost 0" rule.
type PricingTable map[string]ModelPricing

// DefaultPricingTable seeds a small, representative rate card; callers
// register additional models with Tracker.RegisterPricing.
func DefaultPricingTable() PricingTable {
	return PricingTable{
		"gpt-4o":                {InputPerMillion: 2.50, OutputPerMillion: 10.00, Currency: "USD"},
		"gpt-4o-mini":           {InputPerMillion: 0.15, OutputPerMillion: 0.60, Currency: "USD"},
		"claude-3-5-sonnet":     {InputPerMillion: 3.00, OutputPerMillion: 15.00, Currency: "USD"},
		"claude-3-5-haiku":      {InputPerMillion: 0.80, OutputPerMillion: 4.00, Currency: "USD"},
		"gemini-1.5-pro":        {InputPerMillion: 1.25, OutputPerMillion: 5.00, Currency: "USD"},
	}
}
