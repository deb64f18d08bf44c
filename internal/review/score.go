package review

// Score maps a level to its numeric weight: none 0, low 1, medium 3, high 7.
func Score(l Level) int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 3
	case LevelHigh:
		return 7
	default:
		return 0
	}
}

// Quality is the depth proxy of a review: Score(thoroughness) + Score(understanding).
func Quality(a Assessment) int {
	return Score(a.Thoroughness) + Score(a.Understanding)
}
