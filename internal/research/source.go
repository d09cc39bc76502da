package research

import (
	"fmt"
	"regexp"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// MinSources is the minimum number of sources a collection must carry.
const MinSources = 5

var (
	sourceIDPattern    = regexp.MustCompile(`^SRC-\d+$`)
	credibilityPattern = regexp.MustCompile(`^(high|medium|low)$`)
)

// Source is a discovered source from the source finder stage.
type Source struct {
	ID             string  `json:"id"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	Publisher      string  `json:"publisher,omitempty"`
	Date           string  `json:"date,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
	Credibility    string  `json:"credibility,omitempty"`
	ContentSnippet string  `json:"content_snippet,omitempty"`
	SourceType     string  `json:"source_type,omitempty"`
}

// Validate checks the source shape.
func (s Source) Validate() error {
	if !sourceIDPattern.MatchString(s.ID) {
		return fmt.Errorf("source id %q must match SRC-<n>", s.ID)
	}
	if s.RelevanceScore < 0 || s.RelevanceScore > 1 {
		return fmt.Errorf("source %s relevance score %.2f must be within [0,1]", s.ID, s.RelevanceScore)
	}
	if s.Credibility != "" && !credibilityPattern.MatchString(s.Credibility) {
		return fmt.Errorf("source %s credibility %q must be high, medium or low", s.ID, s.Credibility)
	}
	return nil
}

// SourceCollection is the curated source list from the source finder.
type SourceCollection struct {
	TaskID           types.ID            `json:"task_id"`
	Sources          []Source            `json:"sources"`
	CoverageMatrix   map[string][]string `json:"coverage_matrix,omitempty"`
	TotalSources     int                 `json:"total_sources"`
	AverageRelevance float64             `json:"average_relevance"`
	Gaps             []string            `json:"gaps,omitempty"`
}

// Normalize fills derived fields: total count from the member slice and
// average relevance as the arithmetic mean of member scores when not
// explicitly supplied.
func (c *SourceCollection) Normalize() {
	if c.TotalSources == 0 {
		c.TotalSources = len(c.Sources)
	}
	if c.AverageRelevance == 0 && len(c.Sources) > 0 {
		var sum float64
		for _, s := range c.Sources {
			sum += s.RelevanceScore
		}
		c.AverageRelevance = sum / float64(len(c.Sources))
	}
}

// Validate enforces the collection invariants: at least MinSources
// well-formed sources and an in-range average relevance.
func (c *SourceCollection) Validate() error {
	if len(c.Sources) < MinSources {
		return fmt.Errorf("source collection must have at least %d sources, got %d",
			MinSources, len(c.Sources))
	}
	for _, s := range c.Sources {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if c.AverageRelevance < 0 || c.AverageRelevance > 1 {
		return fmt.Errorf("average relevance %.2f must be within [0,1]", c.AverageRelevance)
	}
	return nil
}
