package db

import "time"

// Source is a document entries were extracted from.
type Source struct {
	ID                    int64
	SourceType            string
	Title                 string
	Author                string
	Website               string
	URL                   string
	Language              string
	Meta                  string
	AddedAt               time.Time
	LastProcessedSentence int
}

// Entry is one stored match. Start and End are rune offsets into the whole
// document; Value and Projected hold the raw and simplified JSON forms.
type Entry struct {
	ID            int64
	SourceID      int64
	SentenceIndex int
	Dim           string
	Body          string
	Start         int
	End           int
	Latent        bool
	Value         string
	Projected     string
}
