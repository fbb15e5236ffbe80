package scan

// Summary counts results by risk level.
type Summary struct {
	Total  int
	High   int
	Medium int
	Low    int
}

// Summarize tallies results by risk level.
func Summarize(results []*Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.RiskLevel() {
		case RiskHigh:
			s.High++
		case RiskMedium:
			s.Medium++
		case RiskLow:
			s.Low++
		}
	}
	return s
}

// Store holds the results of a session, most recent first.
// There is deliberately no removal operation.
type Store interface {
	// Append inserts a result at the head of the sequence
	Append(result *Result)

	// All returns the sequence, most recent first
	All() []*Result

	// Summarize returns counts by risk level
	Summarize() Summary
}
