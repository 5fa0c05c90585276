package siteqa

// Converter turns extracted HTML into the text stored and indexed for a page.
type Converter interface {
	// Convert transforms HTML content into text.
	// The input should be clean HTML (e.g., from an Extractor).
	Convert(html string) (string, error)
}
