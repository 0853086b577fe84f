package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/llm"
	"github.com/reelworks/brain/internal/telemetry"
)

const (
	maxCoverageItems       = 100
	coveragePromptItems    = 20
	coverageContentPreview = 500
)

// aspectKeywords buckets items by topic for the distribution stat. An
// item counts in every bucket it mentions.
var aspectKeywords = map[string][]string{
	"plot":      {"plot", "story", "narrative", "arc"},
	"character": {"character", "protagonist", "personality"},
	"theme":     {"theme", "message", "meaning"},
	"pacing":    {"pacing", "tempo", "rhythm", "timing"},
	"dialogue":  {"dialogue", "conversation", "speech"},
	"visual":    {"visual", "aesthetic", "style", "look"},
	"setting":   {"setting", "location", "environment", "world"},
}

// rawCoverageAnalysis mirrors the JSON shape requested from the model.
// Fields are pointers where absence must be distinguished from a zero
// value during validation.
type rawCoverageAnalysis struct {
	CoveredAspects  []rawCoveredAspect `json:"coveredAspects"`
	Gaps            []rawCoverageGap   `json:"gaps"`
	Recommendations []string           `json:"recommendations"`
}

type rawCoveredAspect struct {
	Aspect    *string `json:"aspect"`
	Coverage  *int    `json:"coverage"`
	ItemCount *int    `json:"itemCount"`
	Quality   *string `json:"quality"`
}

type rawCoverageGap struct {
	Aspect     *string `json:"aspect"`
	Coverage   *int    `json:"coverage"`
	ItemCount  *int    `json:"itemCount"`
	Severity   *string `json:"severity"`
	Suggestion *string `json:"suggestion"`
}

// CoverageService judges how well a segment's collected items cover the
// segment's scope and where the gaps are.
type CoverageService struct {
	embedder  EmbeddingClient
	completer Completer
}

func NewCoverageService(embedder EmbeddingClient, completer Completer) *CoverageService {
	return &CoverageService{embedder: embedder, completer: completer}
}

// Analyze embeds the items, asks the model for a structured gap analysis,
// and combines it with deterministic distribution and quality metrics.
// The model's output is validated entry by entry: malformed covered
// aspects are dropped, malformed gaps are repaired with defaults since
// gaps are the actionable half of the report. A completely failed model
// call still yields a valid report with a generic recommendation.
func (s *CoverageService) Analyze(ctx context.Context, projectID, segment string, items []domain.CoverageItem, description string) (*domain.CoverageReport, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	if segment == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "segment is required")
	}
	if len(items) == 0 {
		return nil, domain.ErrNoCoverageItems
	}
	if len(items) > maxCoverageItems {
		return nil, domain.ErrTooManyCoverageItems
	}
	for i, item := range items {
		if item.Content == "" {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("item %d has no content", i))
		}
	}
	if description == "" {
		description = fmt.Sprintf("%s segment", segment)
	}

	ctx, span := telemetry.StartSpan(ctx, "coverage.analyze", telemetry.SpanAttributes{
		ProjectID: projectID,
		Segment:   segment,
		Operation: "analyze_coverage",
	})
	defer span.End()

	// The embeddings anchor future clustering work; the analysis itself
	// is text-based, but a provider that cannot embed the items at all
	// should fail the request rather than produce an unanchored report.
	contents := make([]string, len(items))
	for i, item := range items {
		contents[i] = item.Content
	}
	if _, err := s.embedder.EmbedMany(ctx, contents); err != nil {
		return nil, err
	}

	analysis := s.analyzeWithModel(ctx, segment, description, items)

	report := &domain.CoverageReport{
		Segment:          segment,
		Recommendations:  analysis.Recommendations,
		ItemDistribution: itemDistribution(items),
	}

	for _, raw := range analysis.CoveredAspects {
		if raw.Aspect == nil || raw.Coverage == nil || raw.ItemCount == nil || raw.Quality == nil {
			log.Printf("dropping malformed covered aspect in %s coverage analysis", segment)
			continue
		}
		report.CoveredAspects = append(report.CoveredAspects, domain.CoveredAspect{
			Aspect:    *raw.Aspect,
			Coverage:  clampCoverage(*raw.Coverage),
			ItemCount: *raw.ItemCount,
			Quality:   *raw.Quality,
		})
	}

	for _, raw := range analysis.Gaps {
		gap := domain.CoverageGap{
			Aspect:     "Unknown",
			Severity:   "medium",
			Suggestion: "No suggestion provided",
		}
		if raw.Aspect != nil {
			gap.Aspect = *raw.Aspect
		}
		if raw.Coverage != nil {
			gap.Coverage = clampCoverage(*raw.Coverage)
		}
		if raw.ItemCount != nil {
			gap.ItemCount = *raw.ItemCount
		}
		if raw.Severity != nil {
			gap.Severity = *raw.Severity
		}
		if raw.Suggestion != nil {
			gap.Suggestion = *raw.Suggestion
		}
		report.Gaps = append(report.Gaps, gap)
	}

	report.CoverageScore = meanCoverage(report.CoveredAspects)
	report.QualityMetrics = qualityMetrics(items, report.CoveredAspects, report.Gaps)

	return report, nil
}

func (s *CoverageService) analyzeWithModel(ctx context.Context, segment, description string, items []domain.CoverageItem) rawCoverageAnalysis {
	sample := items[:min(coveragePromptItems, len(items))]
	var sb strings.Builder
	for i, item := range sample {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		summary := item.Summary
		if summary == "" {
			summary = "N/A"
		}
		content := item.Content
		if len(content) > coverageContentPreview {
			content = content[:coverageContentPreview]
		}
		fmt.Fprintf(&sb, "Item %d:\nSummary: %s\nContent: %s...", i+1, summary, content)
	}

	messages := []llm.Message{
		{
			Role:    llm.RoleSystem,
			Content: fmt.Sprintf("You are an expert at analyzing %s content coverage and identifying gaps.", segment),
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Analyze the coverage of the following %s items against the segment scope.

Segment: %s
Scope: %s

Items (%d total):
%s

Provide a JSON response with this EXACT structure (all fields are required):
{
  "coveredAspects": [
    {
      "aspect": "Aspect name",
      "coverage": 85,
      "itemCount": 5,
      "quality": "excellent"
    }
  ],
  "gaps": [
    {
      "aspect": "Missing aspect",
      "coverage": 20,
      "itemCount": 0,
      "severity": "high",
      "suggestion": "Specific actionable suggestion"
    }
  ],
  "recommendations": ["Recommendation 1", "Recommendation 2"]
}

IMPORTANT:
- coverage must be a number 0-100
- itemCount must be a number (0 for gaps)
- quality must be one of: excellent, good, fair, poor
- severity must be one of: high, medium, low
- All fields are REQUIRED

Return ONLY valid JSON, no other text.`, segment, segment, description, len(items), sb.String()),
		},
	}

	raw, err := s.completer.Complete(ctx, messages, 0.3, 2000)
	if err != nil {
		log.Printf("coverage analysis for segment %q failed: %v", segment, err)
		return fallbackAnalysis()
	}

	var analysis rawCoverageAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &analysis); err != nil {
		log.Printf("coverage analysis for segment %q returned unparseable output: %v", segment, err)
		return fallbackAnalysis()
	}
	return analysis
}

func fallbackAnalysis() rawCoverageAnalysis {
	return rawCoverageAnalysis{
		Recommendations: []string{"Unable to analyze coverage due to an error"},
	}
}

func itemDistribution(items []domain.CoverageItem) map[string]int {
	distribution := map[string]int{}
	for _, item := range items {
		combined := strings.ToLower(item.Content) + " " + strings.ToLower(item.Summary)
		for aspect, keywords := range aspectKeywords {
			for _, kw := range keywords {
				if strings.Contains(combined, kw) {
					distribution[aspect]++
					break
				}
			}
		}
	}
	return distribution
}

// clampCoverage bounds a model-supplied coverage value to [0, 100] so
// a hallucinated number cannot push the derived scores out of range.
func clampCoverage(v int) int {
	return min(100, max(0, v))
}

func meanCoverage(aspects []domain.CoveredAspect) int {
	if len(aspects) == 0 {
		return 0
	}
	var sum int
	for _, a := range aspects {
		sum += a.Coverage
	}
	return sum / len(aspects)
}

var coherenceScores = map[string]int{
	"excellent": 100,
	"good":      75,
	"fair":      50,
	"poor":      25,
}

func qualityMetrics(items []domain.CoverageItem, aspects []domain.CoveredAspect, gaps []domain.CoverageGap) domain.QualityMetrics {
	m := domain.QualityMetrics{
		Depth: meanCoverage(aspects),
	}

	total := len(aspects) + len(gaps)
	if total > 0 {
		m.Breadth = len(aspects) * 100 / total
	} else {
		m.Breadth = 50
	}

	if len(aspects) > 0 {
		var sum int
		for _, a := range aspects {
			score, ok := coherenceScores[a.Quality]
			if !ok {
				score = 50
			}
			sum += score
		}
		m.Coherence = sum / len(aspects)
	} else {
		m.Coherence = 50
	}

	var contentLen int
	for _, item := range items {
		contentLen += len(item.Content)
	}
	avgLen := float64(contentLen) / float64(len(items))
	// 500 characters of content per item reads as well-detailed.
	m.Actionability = min(100, int(avgLen/500*100))

	return m
}
