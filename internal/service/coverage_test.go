package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reelworks/brain/internal/domain"
)

func coverageItems(contents ...string) []domain.CoverageItem {
	items := make([]domain.CoverageItem, len(contents))
	for i, c := range contents {
		items[i] = domain.CoverageItem{Content: c}
	}
	return items
}

func embedderForItems(items []domain.CoverageItem) *MockEmbeddingClient {
	embedder := new(MockEmbeddingClient)
	contents := make([]string, len(items))
	for i, item := range items {
		contents[i] = item.Content
	}
	embedder.On("EmbedMany", mock.Anything, contents).Return(vectorsFor(contents), nil).Once()
	return embedder
}

func TestCoverageService_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("builds report from well-formed model output", func(t *testing.T) {
		items := coverageItems(
			"The plot arc of act one is strong but the story loses focus later.",
			"Dialogue between the leads crackles; the conversation scenes carry the film.",
		)
		embedder := embedderForItems(items)
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything, float32(0.3), 2000).Return(`{
			"coveredAspects": [
				{"aspect": "Plot structure", "coverage": 80, "itemCount": 1, "quality": "good"},
				{"aspect": "Dialogue", "coverage": 90, "itemCount": 1, "quality": "excellent"}
			],
			"gaps": [
				{"aspect": "Visual style", "coverage": 10, "itemCount": 0, "severity": "high", "suggestion": "Collect visual references"}
			],
			"recommendations": ["Gather visual material"]
		}`, nil).Once()

		svc := NewCoverageService(embedder, completer)
		report, err := svc.Analyze(ctx, testProjectID, "editorial", items, "editorial review scope")

		require.NoError(t, err)
		assert.Equal(t, "editorial", report.Segment)
		assert.Equal(t, 85, report.CoverageScore)
		require.Len(t, report.CoveredAspects, 2)
		require.Len(t, report.Gaps, 1)
		assert.Equal(t, "high", report.Gaps[0].Severity)
		assert.Equal(t, []string{"Gather visual material"}, report.Recommendations)

		// plot+story hit the plot bucket once for item 1; dialogue+conversation
		// hit dialogue once for item 2.
		assert.Equal(t, 1, report.ItemDistribution["plot"])
		assert.Equal(t, 1, report.ItemDistribution["dialogue"])

		assert.Equal(t, 85, report.QualityMetrics.Depth)
		assert.Equal(t, 66, report.QualityMetrics.Breadth) // 2 of 3 aspects
		assert.Equal(t, 87, report.QualityMetrics.Coherence)

		embedder.AssertExpectations(t)
		completer.AssertExpectations(t)
	})

	t.Run("drops malformed covered aspects and repairs malformed gaps", func(t *testing.T) {
		items := coverageItems("some content")
		embedder := embedderForItems(items)
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything, float32(0.3), 2000).Return(`{
			"coveredAspects": [
				{"aspect": "Complete", "coverage": 70, "itemCount": 2, "quality": "fair"},
				{"aspect": "Missing fields"}
			],
			"gaps": [
				{"aspect": "Sparse gap"}
			],
			"recommendations": []
		}`, nil).Once()

		svc := NewCoverageService(embedder, completer)
		report, err := svc.Analyze(ctx, testProjectID, "editorial", items, "")

		require.NoError(t, err)
		require.Len(t, report.CoveredAspects, 1)
		assert.Equal(t, "Complete", report.CoveredAspects[0].Aspect)

		require.Len(t, report.Gaps, 1)
		assert.Equal(t, "Sparse gap", report.Gaps[0].Aspect)
		assert.Equal(t, "medium", report.Gaps[0].Severity)
		assert.Equal(t, "No suggestion provided", report.Gaps[0].Suggestion)
		assert.Zero(t, report.Gaps[0].Coverage)
	})

	t.Run("clamps out-of-range coverage values", func(t *testing.T) {
		items := coverageItems("some content")
		embedder := embedderForItems(items)
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything, float32(0.3), 2000).Return(`{
			"coveredAspects": [
				{"aspect": "Inflated", "coverage": 150, "itemCount": 1, "quality": "good"},
				{"aspect": "Negative", "coverage": -20, "itemCount": 1, "quality": "poor"}
			],
			"gaps": [
				{"aspect": "Overshot gap", "coverage": 400, "itemCount": 0, "severity": "low", "suggestion": "s"}
			],
			"recommendations": []
		}`, nil).Once()

		svc := NewCoverageService(embedder, completer)
		report, err := svc.Analyze(ctx, testProjectID, "editorial", items, "")

		require.NoError(t, err)
		require.Len(t, report.CoveredAspects, 2)
		assert.Equal(t, 100, report.CoveredAspects[0].Coverage)
		assert.Equal(t, 0, report.CoveredAspects[1].Coverage)
		assert.Equal(t, 100, report.Gaps[0].Coverage)

		assert.Equal(t, 50, report.CoverageScore)
		assert.GreaterOrEqual(t, report.QualityMetrics.Depth, 0)
		assert.LessOrEqual(t, report.QualityMetrics.Depth, 100)
	})

	t.Run("unparseable model output falls back to a minimal valid report", func(t *testing.T) {
		items := coverageItems("anything at all")
		embedder := embedderForItems(items)
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything, float32(0.3), 2000).
			Return("I think the coverage looks pretty good overall!", nil).Once()

		svc := NewCoverageService(embedder, completer)
		report, err := svc.Analyze(ctx, testProjectID, "editorial", items, "")

		require.NoError(t, err)
		assert.Empty(t, report.CoveredAspects)
		assert.Empty(t, report.Gaps)
		assert.Equal(t, []string{"Unable to analyze coverage due to an error"}, report.Recommendations)
		assert.Zero(t, report.CoverageScore)
		assert.Equal(t, 50, report.QualityMetrics.Breadth)
		assert.Equal(t, 50, report.QualityMetrics.Coherence)
	})

	t.Run("model failure also falls back", func(t *testing.T) {
		items := coverageItems("anything")
		embedder := embedderForItems(items)
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything, float32(0.3), 2000).
			Return("", errors.New("model down")).Once()

		svc := NewCoverageService(embedder, completer)
		report, err := svc.Analyze(ctx, testProjectID, "editorial", items, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"Unable to analyze coverage due to an error"}, report.Recommendations)
	})

	t.Run("embedding failure fails the analysis", func(t *testing.T) {
		items := coverageItems("anything")
		embedder := new(MockEmbeddingClient)
		embedder.On("EmbedMany", mock.Anything, mock.Anything).
			Return(nil, domain.NewProviderError("embedding service unavailable", errors.New("timeout"))).Once()
		completer := new(MockCompleter)

		svc := NewCoverageService(embedder, completer)
		_, err := svc.Analyze(ctx, testProjectID, "editorial", items, "")

		require.Error(t, err)
		completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects empty and oversized item sets before any provider call", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)
		svc := NewCoverageService(embedder, new(MockCompleter))

		_, err := svc.Analyze(ctx, testProjectID, "editorial", nil, "")
		assert.ErrorIs(t, err, domain.ErrNoCoverageItems)

		tooMany := make([]domain.CoverageItem, 101)
		for i := range tooMany {
			tooMany[i].Content = "x"
		}
		_, err = svc.Analyze(ctx, testProjectID, "editorial", tooMany, "")
		assert.ErrorIs(t, err, domain.ErrTooManyCoverageItems)

		embedder.AssertNotCalled(t, "EmbedMany", mock.Anything, mock.Anything)
	})

	t.Run("actionability scales with average content length", func(t *testing.T) {
		long := strings.Repeat("a", 1000)
		items := coverageItems(long)
		embedder := embedderForItems(items)
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything, float32(0.3), 2000).
			Return(`{"coveredAspects": [], "gaps": [], "recommendations": []}`, nil).Once()

		svc := NewCoverageService(embedder, completer)
		report, err := svc.Analyze(ctx, testProjectID, "editorial", items, "")

		require.NoError(t, err)
		// 1000 chars averages to 200% of the 500-char baseline, capped at 100.
		assert.Equal(t, 100, report.QualityMetrics.Actionability)
	})
}
