package guardrail

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// piiPatterns maps detection labels to their regex shapes. The set is
// fixed: SSN, 16-digit card number, email address, phone number.
var piiPatterns = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{"SSN", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"credit card", regexp.MustCompile(`\b\d{16}\b`)},
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"phone number", regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
}

// PIIDetector blocks submissions containing personally identifiable
// information.
type PIIDetector struct{}

// NewPIIDetector creates the PII guardrail.
func NewPIIDetector() *PIIDetector {
	return &PIIDetector{}
}

// Name returns the unique name of this guardrail instance.
func (d *PIIDetector) Name() string { return "pii_detector" }

// Type returns the guardrail category.
func (d *PIIDetector) Type() GuardrailType { return GuardrailTypePII }

// Check scans the content against the fixed PII pattern set. Any match
// trips the guardrail with the detected labels.
func (d *PIIDetector) Check(ctx context.Context, input Input) (Result, error) {
	var detected []string
	for _, p := range piiPatterns {
		if p.pattern.MatchString(input.Content) {
			detected = append(detected, p.label)
		}
	}

	if len(detected) == 0 {
		return Clean(), nil
	}
	return Trip(fmt.Sprintf("PII detected: %s", strings.Join(detected, ", ")), detected...), nil
}
