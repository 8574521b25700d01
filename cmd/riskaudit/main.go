// Command riskaudit reads a saved predict response and reports how often the
// server's severity tone agrees with the probability color band. The sidebar
// badge follows severity while the map marker follows probability, so
// disagreements show up as mismatched colors on the dashboard.
//
// Usage:
//
//	go run ./cmd/riskaudit -predictions data/mock/predict_response.json
//	go run ./cmd/riskaudit -predictions resp.json -max-mismatch-rate 0.1
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/grid-risk-dashboard/internal/domain"
)

func main() {
	predictions := flag.String("predictions", "", "path to a saved predict response")
	maxMismatch := flag.Float64("max-mismatch-rate", 1, "exit non-zero when the mismatch rate exceeds this")
	show := flag.Int("show", 10, "number of mismatched feeders to list")
	flag.Parse()

	if *predictions == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*predictions, *maxMismatch, *show))
}

func run(path string, maxMismatch float64, show int) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read predictions: %v\n", err)
		return 1
	}
	var resp domain.PredictResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode predictions: %v\n", err)
		return 1
	}

	a := domain.AuditTones(resp.Predictions)

	fmt.Println("=== Severity Tone vs Color Band ===")
	if resp.ModelVersion != "" {
		fmt.Printf("model: %s\n", resp.ModelVersion)
	}
	fmt.Println()
	printMatrix(a)
	fmt.Println()

	mismatchRate := 1 - a.AgreementRate()
	fmt.Printf("feeders: %d  agree: %d  mismatch rate: %.1f%%\n", a.Total, a.Agree, mismatchRate*100)

	if len(a.Mismatched) > 0 && show > 0 {
		fmt.Println()
		fmt.Println("Mismatched feeders:")
		for i, p := range a.Mismatched {
			if i == show {
				fmt.Printf("  ... and %d more\n", len(a.Mismatched)-show)
				break
			}
			fmt.Printf("  %-8s %-8s p=%s  badge=%-6s marker=%s\n",
				p.FeederID, p.Severity, domain.FormatProbability(p.OutageProbability),
				domain.SeverityTone(p.Severity), domain.ClassifyRisk(p.OutageProbability))
		}
	}

	if mismatchRate > maxMismatch {
		fmt.Printf("\nFAIL: mismatch rate %.1f%% exceeds %.1f%%\n", mismatchRate*100, maxMismatch*100)
		return 1
	}
	fmt.Println("\nPASS")
	return 0
}

func printMatrix(a domain.ToneAgreement) {
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s", "tone \\ color")
	for _, col := range domain.RiskColors {
		fmt.Fprintf(&b, "%8s", col)
	}
	fmt.Println(b.String())

	for _, row := range domain.RiskColors {
		b.Reset()
		fmt.Fprintf(&b, "%-14s", row)
		for _, col := range domain.RiskColors {
			fmt.Fprintf(&b, "%8d", a.Counts[row][col])
		}
		fmt.Println(b.String())
	}
}
