package domain

// RiskColor is the marker color band derived from outage probability.
type RiskColor string

const (
	RiskRed    RiskColor = "red"
	RiskOrange RiskColor = "orange"
	RiskYellow RiskColor = "yellow"
	RiskGreen  RiskColor = "green"
)

// RiskColors lists the bands from most to least severe.
var RiskColors = []RiskColor{RiskRed, RiskOrange, RiskYellow, RiskGreen}

// ClassifyRisk maps an outage probability to a color band. Thresholds are
// exclusive lower bounds: 0.7 is orange, 0.5 is yellow, 0.3 is green.
// Values outside [0, 1] classify by the same rules.
func ClassifyRisk(p float64) RiskColor {
	switch {
	case p > 0.7:
		return RiskRed
	case p > 0.5:
		return RiskOrange
	case p > 0.3:
		return RiskYellow
	default:
		return RiskGreen
	}
}

// SeverityTone maps a server-assigned severity label to the badge color used
// in the feeder list. Unknown labels fall back to green.
func SeverityTone(severity string) RiskColor {
	switch severity {
	case SeverityCritical:
		return RiskRed
	case SeverityHigh:
		return RiskOrange
	case SeverityModerate:
		return RiskYellow
	default:
		return RiskGreen
	}
}
