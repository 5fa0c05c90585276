// Package bloom provides probabilistic URL deduplication for the crawl frontier.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter remembers URLs in constant memory. A URL that was added is always
// reported as seen; an unseen URL is wrongly reported as seen with roughly
// the false positive rate the filter was sized for.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs at fpRate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records url.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// Test reports whether url may have been added.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// TestAndAdd records url and reports whether it may have been added before.
func (f *Filter) TestAndAdd(url string) bool {
	return f.f.TestAndAddString(url)
}

// EstimatedCount returns the approximate number of URLs added.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

// Reset forgets every URL.
func (f *Filter) Reset() {
	f.f.ClearAll()
}
