package tfidf_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/tfidf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(url, text string) *siteqa.Document {
	return &siteqa.Document{URL: url, Text: text}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	t.Parallel()

	s, err := tfidf.Build(context.Background(), nil, tfidf.DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Terms())
}

func TestBuild_RowsFollowInputOrder(t *testing.T) {
	t.Parallel()

	docs := []*siteqa.Document{
		doc("https://a.test/", "admission process"),
		doc("https://a.test/fees", "fee structure"),
		doc("https://a.test/hostel", "hostel rooms"),
	}

	s, err := tfidf.Build(context.Background(), docs, tfidf.DefaultOptions())

	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	for i, d := range docs {
		assert.Equal(t, d.URL, s.Document(i).URL)
	}
}

func TestBuild_EmptyDocumentKeepsZeroRow(t *testing.T) {
	t.Parallel()

	docs := []*siteqa.Document{
		doc("https://a.test/", "placements and recruiters"),
		doc("https://a.test/blank", ""),
		doc("https://a.test/stop", "the and of"),
	}

	s, err := tfidf.Build(context.Background(), docs, tfidf.DefaultOptions())

	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Empty(t, s.Rows[1].Cols)
	assert.Empty(t, s.Rows[2].Cols)
}

func TestBuild_RowsAreNormalized(t *testing.T) {
	t.Parallel()

	docs := []*siteqa.Document{
		doc("https://a.test/1", "library library books journals"),
		doc("https://a.test/2", "sports complex gym"),
	}

	s, err := tfidf.Build(context.Background(), docs, tfidf.DefaultOptions())
	require.NoError(t, err)

	for _, row := range s.Rows {
		var sum float64
		for _, w := range row.Weights {
			sum += w * w
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestBuild_SmoothedIDF(t *testing.T) {
	t.Parallel()

	docs := []*siteqa.Document{
		doc("https://a.test/1", "campus library"),
		doc("https://a.test/2", "campus canteen"),
	}

	s, err := tfidf.Build(context.Background(), docs, tfidf.DefaultOptions())
	require.NoError(t, err)

	// campus appears in every document: ln(3/3) + 1.
	assert.InDelta(t, 1.0, s.IDF[s.Vocabulary["campus"]], 1e-12)
	// library appears once: ln(3/2) + 1.
	assert.InDelta(t, 1.4054651081081644, s.IDF[s.Vocabulary["library"]], 1e-12)
}

func TestBuild_VocabularyFirstSeenOrder(t *testing.T) {
	t.Parallel()

	docs := []*siteqa.Document{
		doc("https://a.test/1", "zebra apple"),
		doc("https://a.test/2", "mango zebra"),
	}

	s, err := tfidf.Build(context.Background(), docs, tfidf.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"zebra": 0, "apple": 1, "mango": 2}, s.Vocabulary)
}

func TestBuild_MaxFeatures(t *testing.T) {
	t.Parallel()

	docs := []*siteqa.Document{
		doc("https://a.test/1", "rare common common"),
		doc("https://a.test/2", "common extra extra"),
	}
	opts := tfidf.DefaultOptions()
	opts.MaxFeatures = 2

	s, err := tfidf.Build(context.Background(), docs, opts)
	require.NoError(t, err)

	// rare loses to the more frequent terms and columns are renumbered.
	assert.Equal(t, map[string]int{"common": 0, "extra": 1}, s.Vocabulary)
	assert.Len(t, s.IDF, 2)
}

func TestBuild_TitleIsIndexed(t *testing.T) {
	t.Parallel()

	docs := []*siteqa.Document{
		{URL: "https://a.test/1", Title: "Scholarships", Text: "financial support"},
	}

	s, err := tfidf.Build(context.Background(), docs, tfidf.DefaultOptions())
	require.NoError(t, err)

	assert.Contains(t, s.Vocabulary, "scholarships")
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	var docs []*siteqa.Document
	for i, text := range []string{
		"computer science department faculty",
		"mechanical engineering labs and workshops",
		"faculty of computer applications",
		"engineering admissions open",
	} {
		docs = append(docs, doc("https://a.test/"+strings.Repeat("p", i+1), text))
	}

	opts := tfidf.DefaultOptions()
	opts.Workers = 3
	a, err := tfidf.Build(context.Background(), docs, opts)
	require.NoError(t, err)
	b, err := tfidf.Build(context.Background(), docs, opts)
	require.NoError(t, err)

	assert.Equal(t, a.Vocabulary, b.Vocabulary)
	assert.Equal(t, a.IDF, b.IDF)
	assert.Equal(t, a.Rows, b.Rows)

	ha, err := a.Query("computer engineering faculty", 4)
	require.NoError(t, err)
	hb, err := b.Query("computer engineering faculty", 4)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestBuild_DuplicateURL(t *testing.T) {
	t.Parallel()

	docs := []*siteqa.Document{
		doc("https://a.test/", "one"),
		doc("https://a.test/", "two"),
	}

	_, err := tfidf.Build(context.Background(), docs, tfidf.DefaultOptions())

	assert.Equal(t, siteqa.EBUILD, siteqa.ErrorCode(err))
}

func TestBuild_MissingURL(t *testing.T) {
	t.Parallel()

	_, err := tfidf.Build(context.Background(), []*siteqa.Document{doc("", "text")}, tfidf.DefaultOptions())

	assert.Equal(t, siteqa.EBUILD, siteqa.ErrorCode(err))
}

func TestBuild_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tfidf.Build(ctx, []*siteqa.Document{doc("https://a.test/", "text")}, tfidf.DefaultOptions())

	assert.Equal(t, siteqa.EBUILD, siteqa.ErrorCode(err))
}

func TestOptions_SameResults(t *testing.T) {
	t.Parallel()

	base := tfidf.DefaultOptions()

	withWorkers := base
	withWorkers.Workers = 8
	assert.True(t, base.SameResults(withWorkers))

	noStopwords := base
	noStopwords.Stopwords = false
	assert.False(t, base.SameResults(noStopwords))

	fewerTerms := base
	fewerTerms.MaxFeatures = 10
	assert.False(t, base.SameResults(fewerTerms))

	sublinear := base
	sublinear.SublinearTF = true
	assert.False(t, sublinear.SameResults(base))
}
