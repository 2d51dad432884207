package app

import (
	"math"
	"strconv"
	"strings"

	"flexreviews/internal/domain"
)

/********** alias registries (single source of truth) **********/

// The provider has renamed fields across API revisions; accept the known
// variants and take the first non-empty one.
var rawAliases = map[string][]string{
	"listing":    {"listingName", "listing", "listing.name"},
	"guest":      {"guestName", "guest", "reviewerName"},
	"text":       {"publicReview", "review", "comment", "privateFeedback"},
	"date":       {"submittedAt", "departureDate", "date"},
	"status":     {"status"},
	"type":       {"type"},
	"categories": {"reviewCategory", "categories"},
	"channel":    {"channelId", "channel_id"},
}

var categoryNameKeys = []string{"name", "category"}

// Normalize maps raw provider review records into the canonical shape.
// Pure over well-formed input: missing optional fields get documented
// defaults, records without an integer id are dropped. An override entry
// for an id always wins over the provider's own status: manual admin
// decisions are never overwritten by upstream state.
func Normalize(raw []map[string]any, overrides map[int64]bool) []domain.Review {
	out := make([]domain.Review, 0, len(raw))
	for _, m := range raw {
		id, ok := getInt(m, "id")
		if !ok {
			continue
		}
		cats := getCategories(m)

		r := domain.Review{
			ID:         id,
			Listing:    firstAliasStr(m, "listing"),
			Guest:      firstAliasStr(m, "guest"),
			Rating:     meanRating(cats),
			Categories: cats,
			Text:       firstAliasStr(m, "text"),
			Date:       firstAliasStr(m, "date"),
			Type:       firstAliasStr(m, "type"),
			ChannelID:  getChannelID(m),
		}
		if r.Type == "" {
			r.Type = domain.TypeHostToGuest
		}
		if v, ok := overrides[id]; ok {
			r.Approved = v
		} else {
			r.Approved = firstAliasStr(m, "status") == domain.StatusPublished
		}
		out = append(out, r)
	}
	return out
}

// meanRating is the arithmetic mean of the category ratings rounded to one
// decimal, nil when there are no categories.
func meanRating(cats []domain.Category) *float64 {
	if len(cats) == 0 {
		return nil
	}
	var sum float64
	for _, c := range cats {
		sum += c.Rating
	}
	m := math.Round(sum/float64(len(cats))*10) / 10
	return &m
}

/********** raw field extraction **********/

func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func firstAliasStr(m map[string]any, key string) string {
	for _, p := range rawAliases[key] {
		if v := lookupAny(m, p); v != nil {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// getInt reads an integer-valued field that may arrive as float64 (JSON
// numbers), int, or a numeric string.
func getInt(m map[string]any, key string) (int64, bool) {
	return coerceInt(m[key])
}

func coerceInt(v any) (int64, bool) {
	switch v := v.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func getFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", "."))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func getCategories(m map[string]any) []domain.Category {
	var rawCats any
	for _, p := range rawAliases["categories"] {
		if v := lookupAny(m, p); v != nil {
			rawCats = v
			break
		}
	}
	list, ok := rawCats.([]any)
	if !ok {
		return []domain.Category{}
	}
	out := make([]domain.Category, 0, len(list))
	for _, item := range list {
		cm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var name string
		for _, k := range categoryNameKeys {
			if s, ok := cm[k].(string); ok && s != "" {
				name = s
				break
			}
		}
		rating, ok := getFloat(cm["rating"])
		if name == "" || !ok {
			continue
		}
		out = append(out, domain.Category{Name: name, Rating: rating})
	}
	return out
}

func getChannelID(m map[string]any) *int64 {
	for _, p := range rawAliases["channel"] {
		if n, ok := coerceInt(lookupAny(m, p)); ok {
			return &n
		}
	}
	return nil
}
