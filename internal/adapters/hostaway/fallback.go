package hostaway

import (
	_ "embed"
	"encoding/json"
	"sync"
)

// Bundled sample dataset served whenever the live provider is unreachable
// or returns no results. Shaped exactly like the provider's /reviews
// response so it flows through the same normalization path.
//
//go:embed mockReviews.json
var mockReviews []byte

var fallbackOnce = sync.OnceValue(func() []map[string]any {
	var body struct {
		Result []map[string]any `json:"result"`
	}
	if err := json.Unmarshal(mockReviews, &body); err != nil {
		// the dataset is compiled in; a parse failure is a build defect
		panic("hostaway: bundled mockReviews.json is invalid: " + err.Error())
	}
	return body.Result
})

// FallbackReviews returns the bundled raw review records.
func FallbackReviews() []map[string]any {
	return fallbackOnce()
}
