package domain

// Feed is one subscription from the OPML list.
type Feed struct {
	Title string
	URL   string
}
