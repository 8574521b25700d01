package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Map placement constants. The spreads cover San Francisco, Oakland, and
// Berkeley around the default map center.
const (
	CenterLat = 37.82
	CenterLng = -122.35
	LatSpread = 0.25
	LngSpread = 0.35

	// mixIncrement is the additive constant of the 32-bit hash mix.
	mixIncrement uint32 = 0x6D2B79F5
)

// ErrInvalidFeederID is returned when a feeder ID does not match "F-<digits>".
var ErrInvalidFeederID = errors.New("invalid feeder id")

var feederIDRe = regexp.MustCompile(`^F-(\d+)$`)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseFeederSeed extracts the numeric suffix of a feeder ID.
func ParseFeederSeed(feederID string) (uint64, error) {
	m := feederIDRe.FindStringSubmatch(feederID)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFeederID, feederID)
	}
	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidFeederID, feederID, err)
	}
	return n, nil
}

// SynthesizeCoordinate derives a deterministic map position for a feeder.
// The same ID always yields the same coordinate, across processes and hosts.
func SynthesizeCoordinate(feederID string) (Coordinate, error) {
	seed, err := ParseFeederSeed(feederID)
	if err != nil {
		return Coordinate{}, err
	}

	// Truncation to 32 bits matches the browser's Int32 coercion.
	s := uint32(seed)
	r1 := mix32(s)
	r2 := mix32(s + 1)

	// The explicit float64 conversions force rounding of each product so the
	// compiler cannot fuse multiply-add into an FMA on arm64/ppc64.
	return Coordinate{
		Lat: CenterLat + float64((r1-0.5)*LatSpread),
		Lng: CenterLng + float64((r2-0.5)*LngSpread),
	}, nil
}

// mix32 maps a 32-bit input to [0, 1) with a fixed multiply/xor/shift mix.
func mix32(x uint32) float64 {
	t := x + mixIncrement
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}
