// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PaperRecord is a fetched paper together with its generated summary. It is
// the unit stored in both the papers store and the saved store.
type PaperRecord struct {
	// ID is a content-addressable key derived from the normalized title and
	// abstract. It is unique within a store.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the source. Lookups by title go
	// through similarity search, not equality.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the embeddable content of the record.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Summary is the short summary produced by the language model.
	Summary string `json:"summary" yaml:"summary"`

	// SourceURL is the canonical URL of the paper (arXiv entry id).
	SourceURL string `json:"url" yaml:"url"`

	// Published is the submission date reported by the source.
	Published time.Time `json:"published" yaml:"published"`

	// AddedAt is when the record was inserted into the store that returned it.
	AddedAt time.Time `json:"added_at" yaml:"added_at"`
}

// FetchedPaper is a paper as returned by a Source, before summarization.
type FetchedPaper struct {
	Identifier string    `json:"identifier" yaml:"identifier"`
	Title      string    `json:"title" yaml:"title"`
	Authors    []string  `json:"authors" yaml:"authors"`
	Abstract   string    `json:"abstract" yaml:"abstract"`
	URL        string    `json:"url" yaml:"url"`
	Published  time.Time `json:"published" yaml:"published"`
}
