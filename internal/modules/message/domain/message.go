package domain

import "time"

// Message is one rendered feed item, ready for mbox serialization.
// Built once per new item and discarded after emission. Pointer
// fields are optional headers, omitted from output when nil.
type Message struct {
	To              string
	From            *string
	Subject         *string
	Date            time.Time
	ListID          string
	ContentLocation string
	Subtitle        *string
	Author          *string
	Category        *string
	Link            *string
	Body            string
}
