package domain

// Category is one per-category score attached to a review.
type Category struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// Review is the canonical review shape served to the dashboard and the
// public property pages. Rating is nil when the provider sent no category
// scores; ChannelID is nil when the review did not arrive via a channel.
type Review struct {
	ID         int64      `json:"id"`
	Listing    string     `json:"listing"`
	Guest      string     `json:"guest"`
	Rating     *float64   `json:"rating"`
	Categories []Category `json:"categories"`
	Text       string     `json:"review"`
	Date       string     `json:"date"`
	Approved   bool       `json:"approved"`
	Type       string     `json:"type"`
	ChannelID  *int64     `json:"channelId"`
}

// Source tags reported on the read path so callers can tell where a
// snapshot came from.
const (
	SourceCache    = "cache"
	SourceProvider = "provider"
	SourceFallback = "fallback"
	SourceMock     = "mock" // fallback tag outside prod
)

// TypeHostToGuest is the default review type when the provider omits one.
const TypeHostToGuest = "host-to-guest"

// StatusPublished is the provider status that maps to approved when no
// manual override exists for the review id.
const StatusPublished = "published"
