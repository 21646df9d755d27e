package mastery

// Level is a coarse label for a topic mastery score, shown by `neuroquiz state`.
type Level string

const (
	LevelStruggling Level = "struggling"
	LevelLearning   Level = "learning"
	LevelProficient Level = "proficient"
	LevelMastered   Level = "mastered"
)

// ResolveLevel maps a mastery score onto its display level.
func ResolveLevel(score float64) Level {
	switch {
	case score >= 0.9:
		return LevelMastered
	case score >= 0.7:
		return LevelProficient
	case score >= 0.4:
		return LevelLearning
	default:
		return LevelStruggling
	}
}
