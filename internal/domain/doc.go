// Package domain models feeder outage-risk predictions and the rules used to
// place and color them on the dashboard map.
//
// # Data Source
//
// Predictions come from the external outage prediction service
// (POST /api/v1/predict). Each prediction carries a feeder ID, an outage
// probability in [0, 1], a server-assigned severity label, and optional wind
// speed and estimated time to restoration (ETR). This package never derives
// or alters those values; it only reads them for display.
//
// # Feeder Identifiers
//
// Feeder IDs have the form "F-<integer>", e.g. "F-1042". The dashboard polls a
// contiguous roster, F-1000 through F-1199 by default. See [FeederIDs].
//
// # Coordinate Synthesis
//
// The backend does not return feeder geolocation, so every feeder is given a
// stable synthetic map position derived from its numeric suffix:
//
//	r1  = mix32(n)       r2 = mix32(n + 1)
//	lat = 37.82   + (r1 - 0.5) * 0.25
//	lng = -122.35 + (r2 - 0.5) * 0.35
//
// mix32 is a 32-bit hash mix with additive constant 0x6D2B79F5. All arithmetic
// wraps at 32 bits, so positions match the browser rendering bit for bit.
// See [SynthesizeCoordinate].
//
// # Color Bands vs. Severity
//
// Marker color is derived locally from outage probability:
//
//	p > 0.7 red | p > 0.5 orange | p > 0.3 yellow | otherwise green
//
// Severity ("critical", "high", "moderate", "low") is assigned by the
// prediction service with its own thresholds. The two are displayed side by
// side and are not guaranteed to agree. See [ClassifyRisk].
package domain
