package budget

import "strings"

type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// USD per million tokens
var pricing = map[string]ModelPricing{
	"claude-opus-4-5-20251101":  {15.00, 75.00},
	"claude-sonnet-4-20250514":  {3.00, 15.00},
	"claude-haiku-3-5-20241022": {0.80, 4.00},

	"gpt-4o":      {2.50, 10.00},
	"gpt-4o-mini": {0.15, 0.60},

	"kimi-k2-0711-preview": {1.00, 4.00},
}

// fallback for unknown hosted models
var conservativePricing = ModelPricing{5.00, 15.00}

// CalculateCost estimates the USD cost of a call. Local ollama models are free.
func CalculateCost(provider, model string, inputTokens, outputTokens int) float64 {
	if provider == "ollama" || strings.HasPrefix(model, "ollama/") {
		return 0
	}

	p, ok := pricing[model]
	if !ok {
		p = conservativePricing
	}

	return float64(inputTokens)*p.InputPerMillion/1_000_000 +
		float64(outputTokens)*p.OutputPerMillion/1_000_000
}
