package llm

// ModelCost is per-million-token pricing in USD.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID. Friendly names are
// resolved first. It reports false for models not in the table.
func LookupCost(modelID string) (ModelCost, bool) {
	for _, table := range []map[string]string{anthropicModels, geminiModels} {
		modelID = resolveModel(modelID, table)
	}
	c, ok := modelCosts[modelID]
	return c, ok
}

// EstimateCost prices a usage record, returning 0 for unknown models.
func EstimateCost(modelID string, inputTokens, outputTokens int) float64 {
	c, ok := LookupCost(modelID)
	if !ok {
		return 0
	}
	return c.Cost(inputTokens, outputTokens)
}

// modelCosts covers the default and friendly-name models of each provider.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5-20251001":   {1, 5},
	"claude-sonnet-4-5-20250929":  {3, 15},
	"gpt-4o":                      {2.5, 10},
	"gpt-4o-mini":                 {0.15, 0.6},
	"gpt-4.1-mini":                {0.4, 1.6},
	"gemini-2.5-flash":            {0.3, 2.5},
	"gemini-2.5-pro":              {1.25, 10},
	"google/gemini-2.0-flash-001": {0.1, 0.4},
}
