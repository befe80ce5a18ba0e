// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"regexp"
	"strings"
)

// IdentifierType classifies a paper id.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeArxiv
	TypeDOI
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeDOI:
		return "doi"
	default:
		return "unknown"
	}
}

// Download endpoints. Declared as vars so tests can substitute httptest
// servers.
var (
	arxivPDFBase    = "https://arxiv.org/pdf/"
	openAlexAPIBase = "https://api.openalex.org/works/"
)

// arxivPattern matches "2301.07041", "arXiv:2301.07041" and "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// doiPattern matches "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// Classify determines the id type and returns the normalized form. The
// "arXiv:" prefix and a "https://doi.org/" prefix are stripped.
func Classify(id string) (IdentifierType, string) {
	id = strings.TrimSpace(id)
	if m := arxivPattern.FindStringSubmatch(id); m != nil {
		return TypeArxiv, m[1]
	}
	id = strings.TrimPrefix(id, "https://doi.org/")
	if doiPattern.MatchString(id) {
		return TypeDOI, id
	}
	return TypeUnknown, id
}

// Slug returns a filesystem-safe filename stem for a normalized id.
func Slug(normalized string) string {
	return strings.NewReplacer("/", "-", ":", "-", "\\", "-").Replace(normalized)
}
