package sentiment

// Class is a coarse sentiment bucket derived from a 1–10 score.
type Class string

const (
	// Positive scores are above neutral.
	Positive Class = "positive"
	// Neutral is exactly the neutral score.
	Neutral Class = "neutral"
	// Negative scores are below neutral.
	Negative Class = "negative"
)

const neutral = 5.0

// FromScore classifies a score: >5 positive, =5 neutral, <5 negative.
func FromScore(score float64) Class {
	switch {
	case score > neutral:
		return Positive
	case score == neutral:
		return Neutral
	default:
		return Negative
	}
}

// Dominant returns the class of the average of scores (neutral when empty).
func Dominant(scores []float64) Class {
	if len(scores) == 0 {
		return Neutral
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return FromScore(sum / float64(len(scores)))
}
