package app

import (
	"sort"
	"time"

	"flexreviews/internal/domain"
)

// PropertySummary is the per-listing aggregate behind the dashboard
// property cards. AvgRating averages approved reviews only and is nil
// when a listing has none.
type PropertySummary struct {
	Listing       string            `json:"listing"`
	AvgRating     *float64          `json:"avgRating"`
	TotalReviews  int               `json:"totalReviews"`
	ApprovedCount int               `json:"approvedCount"`
	Categories    []CategoryAverage `json:"categories"`
}

type CategoryAverage struct {
	Name string  `json:"name"`
	Avg  float64 `json:"avg"`
}

// TrendPoint is one month of approved-review rating history.
type TrendPoint struct {
	Month     string  `json:"month"` // YYYY-MM
	AvgRating float64 `json:"avgRating"`
}

// Summarize groups reviews by listing and computes the public aggregates.
// Output is sorted by listing name for stable responses.
func Summarize(reviews []domain.Review) []PropertySummary {
	byListing := map[string][]domain.Review{}
	for _, r := range reviews {
		byListing[r.Listing] = append(byListing[r.Listing], r)
	}

	out := make([]PropertySummary, 0, len(byListing))
	for listing, revs := range byListing {
		sum := PropertySummary{Listing: listing, TotalReviews: len(revs)}

		var ratingTotal float64
		var rated int
		catTotals := map[string]float64{}
		catCounts := map[string]int{}
		for _, r := range revs {
			if !r.Approved {
				continue
			}
			sum.ApprovedCount++
			if r.Rating != nil {
				ratingTotal += *r.Rating
				rated++
			}
			for _, c := range r.Categories {
				catTotals[c.Name] += c.Rating
				catCounts[c.Name]++
			}
		}
		if rated > 0 {
			avg := ratingTotal / float64(rated)
			sum.AvgRating = &avg
		}

		names := make([]string, 0, len(catTotals))
		for n := range catTotals {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			sum.Categories = append(sum.Categories, CategoryAverage{
				Name: n,
				Avg:  catTotals[n] / float64(catCounts[n]),
			})
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Listing < out[j].Listing })
	return out
}

// ApprovedForListing returns the public review feed for one property.
func ApprovedForListing(reviews []domain.Review, listing string) []domain.Review {
	out := []domain.Review{}
	for _, r := range reviews {
		if r.Approved && r.Listing == listing {
			out = append(out, r)
		}
	}
	return out
}

// MonthlyTrend buckets approved, rated reviews by submission month.
// Reviews with unparsable dates are skipped rather than failing the read.
func MonthlyTrend(reviews []domain.Review) []TrendPoint {
	totals := map[string]float64{}
	counts := map[string]int{}
	for _, r := range reviews {
		if !r.Approved || r.Rating == nil {
			continue
		}
		t, ok := parseReviewDate(r.Date)
		if !ok {
			continue
		}
		key := t.Format("2006-01")
		totals[key] += *r.Rating
		counts[key]++
	}

	out := make([]TrendPoint, 0, len(totals))
	for month, total := range totals {
		out = append(out, TrendPoint{Month: month, AvgRating: total / float64(counts[month])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// The provider sends "2006-01-02 15:04:05"; tolerate RFC3339 and bare
// dates as well.
func parseReviewDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
