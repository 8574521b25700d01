package domain

// FeatureCollection is a GeoJSON feature collection of feeder markers.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON Point feature for one feeder.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   PointGeometry     `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// PointGeometry holds coordinates in GeoJSON [lng, lat] order.
type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureProperties carries the marker styling and popup text. Roster
// features carry only the feeder ID.
type FeatureProperties struct {
	FeederID    string    `json:"feeder_id"`
	Color       RiskColor `json:"color,omitempty"`
	Probability *float64  `json:"outage_probability,omitempty"`
	Popup       *Popup    `json:"popup,omitempty"`
}

// MarkersToGeoJSON converts map markers into a FeatureCollection.
func MarkersToGeoJSON(markers []Marker) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(markers)),
	}
	for _, m := range markers {
		p, popup := m.Probability, m.Popup
		fc.Features = append(fc.Features, newPointFeature(m.Coordinate, FeatureProperties{
			FeederID:    m.FeederID,
			Color:       m.Color,
			Probability: &p,
			Popup:       &popup,
		}))
	}
	return fc
}

// RosterToGeoJSON places every feeder ID without risk data. It fails on the
// first ID that cannot be placed.
func RosterToGeoJSON(feederIDs []string) (FeatureCollection, error) {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(feederIDs)),
	}
	for _, id := range feederIDs {
		c, err := SynthesizeCoordinate(id)
		if err != nil {
			return FeatureCollection{}, err
		}
		fc.Features = append(fc.Features, newPointFeature(c, FeatureProperties{FeederID: id}))
	}
	return fc, nil
}

func newPointFeature(c Coordinate, props FeatureProperties) Feature {
	return Feature{
		Type: "Feature",
		Geometry: PointGeometry{
			Type:        "Point",
			Coordinates: [2]float64{c.Lng, c.Lat},
		},
		Properties: props,
	}
}
