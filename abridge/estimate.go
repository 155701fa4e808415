package abridge

import (
	"github.com/aluiziolira/go-abridge-books/config"
	"github.com/aluiziolira/go-abridge-books/models"
)

// TokenCounter counts tokens for text under a model's tokenization scheme.
type TokenCounter interface {
	Count(text, model string) int
}

// Overhead constants for the two non-chapter generator calls. The reduce
// input is computed from the predicted chapter outputs; these cover the
// remaining fixed parts.
const (
	classifyInputOverhead  = 1100 // bounded sample plus classification prompt
	classifyOutputOverhead = 4
	synopsisOutputTokens   = 500
)

// Estimator produces pre-flight cost estimates. It performs no generator
// calls and holds no per-run state, so it is safe to call repeatedly while
// the user adjusts model, provider, or target.
type Estimator struct {
	Counter TokenCounter
	Catalog *config.Catalog
}

// Estimate predicts token usage and cost for a run over the given chapters.
// Per-chapter map work and the reduce/classification overhead are reported
// separately. When no pricing entry exists for (provider, model), CostKnown
// is false and the cost fields carry no meaning; unknown pricing is never
// treated as free.
func (e *Estimator) Estimate(chapters []models.Chapter, provider, model string, target float64, wordLimit int) models.CostEstimate {
	est := models.CostEstimate{
		Provider: provider,
		Model:    model,
	}

	reduceInput := 0
	for _, ch := range chapters {
		tokens := e.Counter.Count(ch.Text, model)
		if Decide(ch, wordLimit) == Passthrough {
			est.PassthroughCount++
			// Passthrough text feeds the reduce pass at full length.
			reduceInput += tokens
			continue
		}
		est.SummarizeCount++
		est.ChapterInputTokens += tokens
		out := int(float64(tokens) * target)
		est.ChapterOutputTokens += out
		reduceInput += out
	}

	est.OverheadInputTokens = reduceInput + classifyInputOverhead
	est.OverheadOutputTokens = synopsisOutputTokens + classifyOutputOverhead

	pricing, known := e.Catalog.Lookup(provider, model)
	est.CostKnown = known
	if known {
		est.Pricing = pricing
		est.ChapterCost = tokenCost(est.ChapterInputTokens, est.ChapterOutputTokens, pricing)
		est.OverheadCost = tokenCost(est.OverheadInputTokens, est.OverheadOutputTokens, pricing)
		est.TotalCost = est.ChapterCost + est.OverheadCost
	}
	return est
}

func tokenCost(input, output int, pricing models.PricingEntry) float64 {
	return float64(input)*pricing.InputPerMTokens/1e6 +
		float64(output)*pricing.OutputPerMTokens/1e6
}
