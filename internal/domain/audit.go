package domain

import "slices"

// ToneAgreement cross-tabulates the server severity tone of each prediction
// against its classifier color. The two are computed independently and can
// disagree, e.g. a 0.55 "moderate" prediction has a yellow badge and an
// orange marker.
type ToneAgreement struct {
	// Counts[severityTone][classifierColor]
	Counts     map[RiskColor]map[RiskColor]int
	Total      int
	Agree      int
	Mismatched []Prediction
}

// AuditTones builds the agreement matrix for a prediction set.
func AuditTones(preds []Prediction) ToneAgreement {
	a := ToneAgreement{Counts: make(map[RiskColor]map[RiskColor]int, len(RiskColors))}
	for _, row := range RiskColors {
		a.Counts[row] = make(map[RiskColor]int, len(RiskColors))
		for _, col := range RiskColors {
			a.Counts[row][col] = 0
		}
	}
	for _, p := range preds {
		tone := SeverityTone(p.Severity)
		color := ClassifyRisk(p.OutageProbability)
		a.Counts[tone][color]++
		a.Total++
		if tone == color {
			a.Agree++
		} else {
			a.Mismatched = append(a.Mismatched, p)
		}
	}
	slices.SortStableFunc(a.Mismatched, func(x, y Prediction) int {
		switch {
		case x.OutageProbability > y.OutageProbability:
			return -1
		case x.OutageProbability < y.OutageProbability:
			return 1
		}
		return 0
	})
	return a
}

// AgreementRate is the fraction of predictions whose tone and color match,
// or 1 for an empty set.
func (a ToneAgreement) AgreementRate() float64 {
	if a.Total == 0 {
		return 1
	}
	return float64(a.Agree) / float64(a.Total)
}
