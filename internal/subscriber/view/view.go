package view

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
)

type Stats struct {
	Total               int     `json:"total"`
	Active              int     `json:"active"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalRevenueDisplay string  `json:"total_revenue_display"`
}

type AreaOption struct {
	Value string `json:"value"`
	Slug  string `json:"slug"`
}

type View struct {
	Subscribers []domain.Subscriber `json:"subscribers"`
	Stats       Stats               `json:"stats"`
	Areas       []AreaOption        `json:"areas"`
}

// Derive filters records through state and computes stats and area options
// over the unfiltered list. records is not modified.
func Derive(records []domain.Subscriber, state State) View {
	if state.brackets == (Brackets{}) {
		state.brackets = DefaultBrackets
	}

	filtered := make([]domain.Subscriber, 0, len(records))
	for _, r := range records {
		if state.matches(r) {
			filtered = append(filtered, r)
		}
	}

	return View{
		Subscribers: filtered,
		Stats:       ComputeStats(records),
		Areas:       AreaOptions(records),
	}
}

func (s State) matches(r domain.Subscriber) bool {
	return s.matchesSearch(r) && s.matchesArea(r) && s.matchesFee(r)
}

func (s State) matchesSearch(r domain.Subscriber) bool {
	if s.search == "" {
		return true
	}
	term := strings.ToLower(s.search)
	for _, field := range []string{r.Name, r.Phone, r.Address, r.Area, r.SubscriberCode} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (s State) matchesArea(r domain.Subscriber) bool {
	return s.area == "" || s.area == AllAreas || r.Area == s.area
}

func (s State) matchesFee(r domain.Subscriber) bool {
	if s.feeRange == "" || s.feeRange == FeeAll {
		return true
	}
	return s.brackets.Classify(r.MonthlyFee) == s.feeRange
}

// ComputeStats counts all records and sums fees of active ones.
func ComputeStats(records []domain.Subscriber) Stats {
	stats := Stats{Total: len(records)}
	for _, r := range records {
		if r.Status != domain.StatusActive {
			continue
		}
		stats.Active++
		stats.TotalRevenue += r.MonthlyFee
	}
	stats.TotalRevenueDisplay = decimal.NewFromFloat(stats.TotalRevenue).StringFixed(2)
	return stats
}

// AreaOptions lists "all" followed by distinct areas in first-seen order.
// A stored area spelled like the sentinel is folded into it.
func AreaOptions(records []domain.Subscriber) []AreaOption {
	options := []AreaOption{{Value: AllAreas, Slug: AllAreas}}
	seen := map[string]struct{}{}
	for _, r := range records {
		if r.Area == "" || strings.EqualFold(r.Area, AllAreas) {
			continue
		}
		if _, ok := seen[r.Area]; ok {
			continue
		}
		seen[r.Area] = struct{}{}
		options = append(options, AreaOption{Value: r.Area, Slug: slug.Make(r.Area)})
	}
	return options
}
