// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens for cost estimation. It is never used for
// truncation or validity enforcement.
type Tokenizer interface {
	CountTokens(text string) int
}

// NewTokenizer returns a tiktoken-backed tokenizer for the model, falling
// back to a character heuristic when the encoding cannot be loaded (e.g. no
// network access to fetch the BPE vocabulary).
func NewTokenizer(model string) Tokenizer {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return heuristicTokenizer{}
	}
	return &tiktokenTokenizer{enc: enc}
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// heuristicTokenizer approximates one token per four characters, the common
// rule of thumb for English text.
type heuristicTokenizer struct{}

func (heuristicTokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}

// Pricing converts token counts into USD cost at distinct input and output
// rates per 1000 tokens.
type Pricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// DefaultPricing matches the default completion model rates.
var DefaultPricing = Pricing{InputPer1K: 0.0015, OutputPer1K: 0.002}

// Estimate prices one completion call.
func (p Pricing) Estimate(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*p.InputPer1K + float64(outputTokens)/1000*p.OutputPer1K
}
