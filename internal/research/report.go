package research

import (
	"fmt"
	"regexp"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

var verificationStatusPattern = regexp.MustCompile(`^(verified|needs_review|disputed)$`)

// VerifiedClaim is a claim that passed fact-checking.
type VerifiedClaim struct {
	FindingID            string `json:"finding_id"`
	VerificationStatus   string `json:"verification_status"`
	CorroboratingSources int    `json:"corroborating_sources"`
	Notes                string `json:"notes,omitempty"`
}

// Validate checks the claim shape.
func (c VerifiedClaim) Validate() error {
	if c.VerificationStatus != "" && !verificationStatusPattern.MatchString(c.VerificationStatus) {
		return fmt.Errorf("verification status %q must be verified, needs_review or disputed", c.VerificationStatus)
	}
	if c.CorroboratingSources < 0 {
		return fmt.Errorf("corroborating sources must be non-negative")
	}
	return nil
}

// FlaggedClaim is a claim that was flagged for human review.
type FlaggedClaim struct {
	FindingID  string `json:"finding_id"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Verification is the fact checker stage's output.
type Verification struct {
	TaskID             types.ID        `json:"task_id"`
	VerifiedClaims     []VerifiedClaim `json:"verified_claims,omitempty"`
	FlaggedClaims      []FlaggedClaim  `json:"flagged_claims,omitempty"`
	Unverifiable       []string        `json:"unverifiable,omitempty"`
	OverallReliability float64         `json:"overall_reliability"`
}

// Validate checks claim shapes and the reliability range.
func (v *Verification) Validate() error {
	for _, c := range v.VerifiedClaims {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if v.OverallReliability < 0 || v.OverallReliability > 1 {
		return fmt.Errorf("overall reliability %.2f must be within [0,1]", v.OverallReliability)
	}
	return nil
}

// Report is the final output package from the report writer stage.
// The structured JSON documents feed the persisted artifacts; the
// markdown content is the report body itself.
type Report struct {
	TaskID               types.ID       `json:"task_id"`
	Title                string         `json:"title"`
	MarkdownContent      string         `json:"markdown_content"`
	PDFPath              string         `json:"pdf_path,omitempty"`
	SourcesJSON          map[string]any `json:"sources_json,omitempty"`
	ConfidenceScoresJSON map[string]any `json:"confidence_scores_json,omitempty"`
	GeneratedAt          time.Time      `json:"generated_at"`
	WordCount            int            `json:"word_count"`
	SourceCount          int            `json:"source_count"`
}

// Validate checks the report carries a title and body.
func (r *Report) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("report title must not be empty")
	}
	if r.MarkdownContent == "" {
		return fmt.Errorf("report markdown content must not be empty")
	}
	return nil
}
