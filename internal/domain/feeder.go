package domain

import "strconv"

// Default feeder roster polled by the dashboard: F-1000 through F-1199.
const (
	DefaultFeederStart = 1000
	DefaultFeederCount = 200
)

// FeederIDs returns count sequential feeder IDs starting at F-<start>.
func FeederIDs(start, count int) []string {
	if count <= 0 {
		return nil
	}
	ids := make([]string, count)
	for i := range ids {
		ids[i] = "F-" + strconv.Itoa(start+i)
	}
	return ids
}
