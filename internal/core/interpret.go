package core

const (
	LabelCancer    = "Cancer"
	LabelNonCancer = "Non-cancer"

	SuggestionCancer    = "Segera periksa ke dokter!"
	SuggestionNonCancer = "Penyakit kanker tidak terdeteksi."

	// DecisionThreshold separates the two labels; a score equal to it is Non-cancer.
	DecisionThreshold = 0.5
)

type Verdict struct {
	Label      string
	Suggestion string
}

// Interpret maps a classifier score to its label and suggestion.
func Interpret(score float32) Verdict {
	if score > DecisionThreshold {
		return Verdict{Label: LabelCancer, Suggestion: SuggestionCancer}
	}
	return Verdict{Label: LabelNonCancer, Suggestion: SuggestionNonCancer}
}
