package reconcile

import (
	"github.com/MrSnakeDoc/ussm/internal/domain"
)

// OtherBucket collects services whose status is not a known one.
const OtherBucket = "Other"

// Summary is the analytics chart data.
type Summary struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

// Summarize counts services per status over the whole catalog.
// Counts always add up to Total; filters never apply here.
func Summarize(catalog []domain.Service) Summary {
	counts := make(map[string]int, len(domain.Statuses)+1)
	for _, st := range domain.Statuses {
		counts[string(st)] = 0
	}
	counts[OtherBucket] = 0

	for _, s := range catalog {
		if _, known := counts[string(s.Status)]; known && s.Status != OtherBucket {
			counts[string(s.Status)]++
			continue
		}
		counts[OtherBucket]++
	}
	return Summary{Total: len(catalog), Counts: counts}
}
