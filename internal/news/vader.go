package news

import (
	"github.com/jonreiter/govader"
)

// Scorer returns a compound sentiment score in [-1, 1] for a piece of text
type Scorer interface {
	Compound(text string) float64
}

// Vader scores text with the VADER lexicon and rules. It is read-only after
// construction and safe for concurrent use.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Compound(text string) float64 {
	return v.analyzer.PolarityScores(text).Compound
}
