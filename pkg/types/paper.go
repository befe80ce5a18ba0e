// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper is a candidate paper returned by the literature search service.
type Paper struct {
	// ID is the source identifier with any version suffix removed (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title with line breaks collapsed.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the canonical abstract page.
	URL string `json:"url" yaml:"url"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the publication or preprint date; zero when unknown.
	Published time.Time `json:"published" yaml:"published"`

	// RelevanceScore is a position-derived score in [0.0, 1.0].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}
