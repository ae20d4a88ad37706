package segmenter

import "unicode/utf8"

// Estimator approximates the token count of a piece of text. Segmentation
// only needs a cheap, monotone estimate; callers wanting exact counts plug
// in a real tokenizer.
type Estimator interface {
	Estimate(text string) int
}

// CharEstimator uses the ~4 characters per token rule of thumb for English
// prose. It deliberately trades accuracy for speed.
type CharEstimator struct{}

func (CharEstimator) Estimate(text string) int {
	return utf8.RuneCountInString(text) / 4
}
