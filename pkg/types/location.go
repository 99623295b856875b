// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Location is a map location post owned by the host CMS. Only the ID and
// title are read; everything else belongs to the host.
type Location struct {
	ID       int64  `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Status   string `json:"status,omitempty" yaml:"status,omitempty"`
	PostType string `json:"post_type,omitempty" yaml:"post_type,omitempty"`
	Content  string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Term is a taxonomy term as reported by the host.
type Term struct {
	ID       int64  `json:"id" yaml:"id"`
	Taxonomy string `json:"taxonomy" yaml:"taxonomy"`
	Slug     string `json:"slug" yaml:"slug"`
	Name     string `json:"name" yaml:"name"`
}

// LocationQuery selects which locations a batch run visits.
type LocationQuery struct {
	PostType string
	Status   string
}
