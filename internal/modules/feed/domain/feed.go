package domain

import "time"

// Channel is feed-level metadata, distinct from the items it carries.
// Lives for one polling pass over one feed.
type Channel struct {
	Title     string
	Link      string
	Author    *string
	Subtitle  *string
	Published *time.Time
}

// Item is a single feed entry. Fields a feed may legitimately omit
// are pointers; nil means the feed did not supply them.
type Item struct {
	RawID     *string
	Link      *string
	Title     *string
	Author    *string
	Category  *string
	Published *time.Time
	BodyHTML  string
}
