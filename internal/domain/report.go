package domain

// BatchTiming splits batch wall-clock time into phases. Phase totals are
// sums across chunks, not critical-path time, since chunks run concurrently.
type BatchTiming struct {
	EmbedMS int64 `json:"embedding_time_ms"`
	WriteMS int64 `json:"write_time_ms"`
	TotalMS int64 `json:"total_time_ms"`
}

// BatchNode is the per-item metadata returned from a batch create.
type BatchNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Embedding  EmbeddingMeta  `json:"embedding"`
}

// EmbeddingMeta describes the embedding backing a created node.
type EmbeddingMeta struct {
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
}

// BatchResult aggregates the outcome of a batch create request. Failed
// chunks are reported through the counts, not through an error; callers
// compare CreatedCount against the requested size.
type BatchResult struct {
	CreatedCount int         `json:"created"`
	FailedCount  int         `json:"failed"`
	NodeIDs      []string    `json:"nodeIds"`
	Nodes        []BatchNode `json:"nodes"`
	Timing       BatchTiming `json:"timing"`
}

// DuplicateMatch is a near-duplicate candidate. Similarity is cosine
// similarity in [0,1] and is always >= the requested threshold.
type DuplicateMatch struct {
	NodeID     string         `json:"nodeId"`
	Similarity float64        `json:"similarity"`
	Content    string         `json:"content"`
	Properties map[string]any `json:"properties"`
}

// ProfileMatch is a profile ranked by fused similarity. Similarity is
// the weighted combination of the primary and secondary vector scores.
type ProfileMatch struct {
	ProfileID  string  `json:"profileId"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// SegmentItem is one ranked item inside a segment context.
type SegmentItem struct {
	NodeID    string  `json:"nodeId"`
	Content   string  `json:"content"`
	Summary   string  `json:"summary,omitempty"`
	Relevance float64 `json:"relevance"`
}

// SegmentContext summarizes what one earlier segment already covers.
type SegmentContext struct {
	ItemCount    int           `json:"itemCount"`
	QualityScore float64       `json:"qualityScore"`
	TopItems     []SegmentItem `json:"topItems"`
	KeyThemes    []string      `json:"keyThemes"`
}

// RelevantItem is a cross-segment item surfaced to the target segment.
type RelevantItem struct {
	NodeID    string  `json:"nodeId"`
	Segment   string  `json:"segment"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevanceToTarget"`
}

// AggregatedContext is the full cross-segment context response.
type AggregatedContext struct {
	ProjectID         string                    `json:"projectId"`
	TargetSegment     string                    `json:"targetSegment"`
	Context           map[string]SegmentContext `json:"context"`
	AggregatedSummary string                    `json:"aggregatedSummary"`
	RelevantItems     []RelevantItem            `json:"relevantItems"`
	TotalItems        int                       `json:"totalItemsAggregated"`
}

// CoveredAspect is an aspect the language model judged as covered.
type CoveredAspect struct {
	Aspect    string `json:"aspect"`
	Coverage  int    `json:"coverage"`
	ItemCount int    `json:"itemCount"`
	Quality   string `json:"quality"`
}

// CoverageGap is an under-covered aspect together with a remedy. Gaps are
// the actionable output, so malformed entries are defaulted, not dropped.
type CoverageGap struct {
	Aspect     string `json:"aspect"`
	Coverage   int    `json:"coverage"`
	ItemCount  int    `json:"itemCount"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion"`
}

// QualityMetrics are deterministic coverage metrics, each in [0,100].
type QualityMetrics struct {
	Depth         int `json:"depth"`
	Breadth       int `json:"breadth"`
	Coherence     int `json:"coherence"`
	Actionability int `json:"actionability"`
}

// CoverageReport combines the model-derived gap analysis with the
// deterministic distribution and quality metrics.
type CoverageReport struct {
	Segment          string          `json:"segment"`
	CoverageScore    int             `json:"coverageScore"`
	CoveredAspects   []CoveredAspect `json:"coveredAspects"`
	Gaps             []CoverageGap   `json:"gaps"`
	Recommendations  []string        `json:"recommendations"`
	ItemDistribution map[string]int  `json:"itemDistribution"`
	QualityMetrics   QualityMetrics  `json:"qualityMetrics"`
}

// CoverageItem is one unit of content submitted for coverage analysis.
type CoverageItem struct {
	Content string `json:"content"`
	Summary string `json:"summary,omitempty"`
}
