package knowledge

// Gate converts an answer-quality score into an answer-or-escalate verdict.
// The decision is a pure function of (answer, confidence, threshold) so replay
// and tests are deterministic.
type Gate struct {
	Threshold float64
}

// Verdict is the gate's output.
type Verdict struct {
	Answer     string
	Confidence float64
	Escalate   bool
}

// Decide passes the answer through when its confidence clears the threshold,
// otherwise escalates. An empty answer always escalates.
func (g Gate) Decide(answer string, confidence float64) Verdict {
	v := Verdict{Answer: answer, Confidence: confidence}
	if answer == "" || confidence < g.Threshold {
		v.Escalate = true
		v.Answer = ""
	}
	return v
}
