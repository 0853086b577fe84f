package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/llm"
)

const (
	maxThemes          = 5
	themeSampleSize    = 10
	summarySampleSize  = 15
	topItemsPerSegment = 5
	maxRelevantItems   = 20

	// Placeholder relevance scores until per-item scoring against the
	// target segment's centroid lands.
	topItemRelevance      = 0.85
	relevantItemRelevance = 0.80
)

// ContextService aggregates what earlier pipeline segments already
// produced into a briefing for the target segment.
type ContextService struct {
	reader    SegmentReader
	completer Completer
}

func NewContextService(reader SegmentReader, completer Completer) *ContextService {
	return &ContextService{reader: reader, completer: completer}
}

// SegmentContext collects recent items from each source segment, extracts
// themes and quality per segment, and produces one cross-segment summary.
// Segments are fetched sequentially to stay inside provider rate limits.
// Model failures degrade the result (empty themes, empty summary) rather
// than failing the aggregation.
func (s *ContextService) SegmentContext(ctx context.Context, projectID, target string, sources []string, limitPerSegment int) (*domain.AggregatedContext, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	if target == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "target segment is required")
	}
	if limitPerSegment < 1 || limitPerSegment > 100 {
		return nil, domain.ErrInvalidContextLimit
	}

	result := &domain.AggregatedContext{
		ProjectID:     projectID,
		TargetSegment: target,
		Context:       map[string]domain.SegmentContext{},
	}

	var relevant []domain.RelevantItem
	for _, segment := range sources {
		nodes, err := s.reader.ListRecentBySegment(ctx, projectID, segment, limitPerSegment)
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			continue
		}

		result.Context[segment] = s.buildSegmentContext(ctx, segment, nodes)

		for _, n := range nodes {
			relevant = append(relevant, domain.RelevantItem{
				NodeID:    n.ID,
				Segment:   segment,
				Content:   n.Content,
				Relevance: relevantItemRelevance,
			})
		}
		result.TotalItems += len(nodes)
	}

	result.AggregatedSummary = s.summarize(ctx, target, relevant)

	if len(relevant) > maxRelevantItems {
		relevant = relevant[:maxRelevantItems]
	}
	result.RelevantItems = relevant

	return result, nil
}

func (s *ContextService) buildSegmentContext(ctx context.Context, segment string, nodes []*domain.Node) domain.SegmentContext {
	contents := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.Content != "" {
			contents = append(contents, n.Content)
		}
	}

	sc := domain.SegmentContext{
		ItemCount: len(nodes),
		KeyThemes: s.extractThemes(ctx, segment, contents),
	}

	var qualitySum float64
	var scored int
	for _, n := range nodes {
		if n.QualityScore > 0 {
			qualitySum += n.QualityScore
			scored++
		}
	}
	if scored > 0 {
		sc.QualityScore = qualitySum / float64(scored)
	}

	for _, n := range nodes[:min(topItemsPerSegment, len(nodes))] {
		sc.TopItems = append(sc.TopItems, domain.SegmentItem{
			NodeID:    n.ID,
			Content:   n.Content,
			Summary:   n.Summary,
			Relevance: topItemRelevance,
		})
	}

	return sc
}

// extractThemes asks the model for the dominant themes of a segment's
// recent content. The model is instructed to answer with a bare JSON
// array; anything unparseable yields no themes.
func (s *ContextService) extractThemes(ctx context.Context, segment string, contents []string) []string {
	if len(contents) == 0 {
		return nil
	}
	sample := contents[:min(themeSampleSize, len(contents))]

	messages := []llm.Message{
		{
			Role:    llm.RoleSystem,
			Content: fmt.Sprintf("You are an expert at analyzing %s content and extracting key themes. Be concise and specific.", segment),
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Analyze the following %s content and extract the %d most important themes or topics.

Content:
%s

Return ONLY a JSON array of theme strings, like: ["theme1", "theme2", "theme3"]
Do not include any other text or explanation.`, segment, maxThemes, strings.Join(sample, "\n\n---\n\n")),
		},
	}

	raw, err := s.completer.Complete(ctx, messages, 0.3, 500)
	if err != nil {
		log.Printf("theme extraction for segment %q failed: %v", segment, err)
		return nil
	}

	var themes []string
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &themes); err != nil {
		log.Printf("theme extraction for segment %q returned unparseable output: %v", segment, err)
		return nil
	}
	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	return themes
}

func (s *ContextService) summarize(ctx context.Context, target string, relevant []domain.RelevantItem) string {
	if len(relevant) == 0 {
		return ""
	}
	sample := relevant[:min(summarySampleSize, len(relevant))]
	contents := make([]string, len(sample))
	for i, item := range sample {
		contents[i] = item.Content
	}

	messages := []llm.Message{
		{
			Role:    llm.RoleSystem,
			Content: "You are an expert at synthesizing information and creating concise summaries.",
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Create a concise summary (max 200 words) that captures the key points from the following content.

Context: Context for %s segment

Content:
%s

Provide ONLY the summary text, no preamble or explanation.`, target, strings.Join(contents, "\n\n---\n\n")),
		},
	}

	summary, err := s.completer.Complete(ctx, messages, 0.5, 500)
	if err != nil {
		log.Printf("aggregated summary for segment %q failed: %v", target, err)
		return ""
	}
	return strings.TrimSpace(summary)
}

// stripCodeFence unwraps a markdown-fenced model answer. Models routinely
// wrap JSON in ```json blocks despite instructions not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	return s
}
