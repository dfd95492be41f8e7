package entity

// SourceDocument is one named text describing a part. Immutable once fetched.
type SourceDocument struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Text string `json:"text"`

	// ImageURLs are raw <img> candidates seen on the source page, if any.
	ImageURLs []string `json:"image_urls,omitempty"`

	// Placeholder marks the synthetic document that only names the part identifier.
	Placeholder bool `json:"-"`
}

// HasRealSource reports whether docs contains at least one non-placeholder document.
func HasRealSource(docs []SourceDocument) bool {
	for _, d := range docs {
		if !d.Placeholder {
			return true
		}
	}
	return false
}
