package mastery

const (
	// MinScore is the floor for any updated topic score. A topic is never
	// driven to zero so it stays eligible for practice.
	MinScore = 0.1

	// MaxScore caps any updated topic score.
	MaxScore = 1.0

	growthRate = 0.1
	headroom   = 1.1
	penalty    = 0.05
)

// Apply returns the next mastery score for a topic. Correct answers grow the
// score towards 1.1 with diminishing steps, capped at MaxScore. Incorrect
// answers subtract a fixed penalty, floored at MinScore.
func Apply(score float64, correct bool) float64 {
	if correct {
		return min(MaxScore, score+growthRate*(headroom-score))
	}
	return max(MinScore, score-penalty)
}

// BlendConfidence folds a reported confidence into the running average
// with weight 0.5.
func BlendConfidence(avg, reported float64) float64 {
	return (avg + reported) / 2
}
