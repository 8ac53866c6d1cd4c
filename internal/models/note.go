// Package models defines the domain types for Laguz.
package models

// Note is a markdown file read from the vault. Metadata and Body are set
// only when the file carried a decodable YAML frontmatter block, which is
// recorded in HasFrontmatter (Metadata may legitimately decode to nil).
type Note struct {
	Path           string `json:"path"`
	Raw            string `json:"-"`
	Metadata       any    `json:"metadata"`
	Body           string `json:"body"`
	HasFrontmatter bool   `json:"-"`
}

// SearchResult is a single content-search hit: one matching line in one note.
// LineNumber is 1-based; Line is the raw line text.
type SearchResult struct {
	Path       string `json:"path"`
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
}

// MetadataMatch is a single metadata-search hit: the full value resolved at
// the requested field path.
type MetadataMatch struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}
