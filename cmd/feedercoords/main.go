// Command feedercoords writes a GeoJSON fixture of synthesized feeder
// positions. Without -predictions it places the bare roster; with a saved
// predict response it emits colored markers with popup text, exactly as the
// dashboard renders them.
//
// Usage:
//
//	go run ./cmd/feedercoords -out data/feeders.geojson
//	go run ./cmd/feedercoords -predictions data/mock/predict_response.json -out data/markers.geojson
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/grid-risk-dashboard/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	start := flag.Int("start", domain.DefaultFeederStart, "first feeder number")
	count := flag.Int("count", domain.DefaultFeederCount, "number of feeders")
	predictions := flag.String("predictions", "", "optional saved predict response to color markers")
	out := flag.String("out", "", "output path (stdout when empty)")
	flag.Parse()

	if *start < 0 || *count <= 0 {
		flag.Usage()
		return fmt.Errorf("-start must be >= 0 and -count > 0")
	}

	var fc domain.FeatureCollection
	if *predictions == "" {
		var err error
		fc, err = domain.RosterToGeoJSON(domain.FeederIDs(*start, *count))
		if err != nil {
			return fmt.Errorf("placing roster: %w", err)
		}
	} else {
		resp, err := loadResponse(*predictions)
		if err != nil {
			return err
		}
		view := domain.BuildDashboard(domain.Snapshot{Predictions: resp.Predictions})
		for _, id := range view.Unplaced {
			log.Printf("skipping unplaceable feeder %q", id)
		}
		fc = domain.MarkersToGeoJSON(view.Markers)
	}

	if err := writeJSON(*out, fc); err != nil {
		return fmt.Errorf("writing GeoJSON: %w", err)
	}
	if *out != "" {
		log.Printf("wrote %d features: %s", len(fc.Features), *out)
	}
	return nil
}

func loadResponse(path string) (domain.PredictResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.PredictResponse{}, fmt.Errorf("read predictions: %w", err)
	}
	var resp domain.PredictResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.PredictResponse{}, fmt.Errorf("decode predictions: %w", err)
	}
	return resp, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
