package predict

import "math"

const (
	labelSatisfied    = "Satisfied"
	labelDissatisfied = "Dissatisfied"
)

// Result is a finished prediction: label, probability of that label in [0,1],
// and where it came from (heuristic or remote).
type Result struct {
	Label  string  `json:"label"`
	Proba  float64 `json:"proba"`
	Source string  `json:"source"`
}

// Heuristic approximates the trained classifier when no scoring endpoint is
// configured. Score starts at 0.5, shifts with seat comfort and cleanliness,
// and loses up to 4 scaling units for accumulated delay (capped at 240 min).
func Heuristic(f Features) Result {
	totalDelay := f.DepDelay + f.ArrDelay

	score := 0.5 +
		float64(f.SeatComfort-3)*0.08 +
		float64(f.Cleanliness-3)*0.06

	delayUnits := totalDelay / 60
	if delayUnits > 4 {
		delayUnits = 4
	}
	score += (4 - delayUnits) * 0.05

	score = math.Max(0, math.Min(1, score))

	label := labelDissatisfied
	proba := 1 - score
	if score >= 0.5 {
		label = labelSatisfied
		proba = score
	}

	return Result{
		Label:  label,
		Proba:  round4(proba),
		Source: "heuristic",
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
