package research

import (
	"fmt"
	"regexp"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

var findingIDPattern = regexp.MustCompile(`^KF-\d+$`)

// KeyFinding is a major finding extracted from sources.
type KeyFinding struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	DataPoints      []string `json:"data_points,omitempty"`
	SourceIDs       []string `json:"source_ids,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
	SubQuestionID   string   `json:"sub_question_id,omitempty"`
}

// Validate checks the finding shape.
func (f KeyFinding) Validate() error {
	if !findingIDPattern.MatchString(f.ID) {
		return fmt.Errorf("finding id %q must match KF-<n>", f.ID)
	}
	if f.ConfidenceScore < 0 || f.ConfidenceScore > 1 {
		return fmt.Errorf("finding %s confidence %.2f must be within [0,1]", f.ID, f.ConfidenceScore)
	}
	return nil
}

// Theme is an identified pattern across findings.
type Theme struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	FindingIDs  []string `json:"finding_ids,omitempty"`
}

// Contradiction records conflicting data points between two sources.
type Contradiction struct {
	ClaimA     string `json:"claim_a"`
	SourceA    string `json:"source_a"`
	ClaimB     string `json:"claim_b"`
	SourceB    string `json:"source_b"`
	Resolution string `json:"resolution,omitempty"`
}

// Analysis is the cross-referenced output of the content analyzer stage.
type Analysis struct {
	TaskID            types.ID        `json:"task_id"`
	KeyFindings       []KeyFinding    `json:"key_findings,omitempty"`
	Themes            []Theme         `json:"themes,omitempty"`
	Contradictions    []Contradiction `json:"contradictions,omitempty"`
	DataGaps          []string        `json:"data_gaps,omitempty"`
	OverallConfidence float64         `json:"overall_confidence"`
}

// Validate checks finding shapes and the confidence range.
func (a *Analysis) Validate() error {
	for _, f := range a.KeyFindings {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	if a.OverallConfidence < 0 || a.OverallConfidence > 1 {
		return fmt.Errorf("overall confidence %.2f must be within [0,1]", a.OverallConfidence)
	}
	return nil
}
