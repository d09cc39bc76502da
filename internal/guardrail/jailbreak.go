package guardrail

import (
	"context"
	"regexp"
)

// jailbreakPatterns is the fixed set of manipulation phrasings, matched
// case-insensitively.
var jailbreakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore (?:previous|all|your) instructions`),
	regexp.MustCompile(`(?i)you are now`),
	regexp.MustCompile(`(?i)pretend (?:you are|to be)`),
	regexp.MustCompile(`(?i)bypass (?:your|the) (?:rules|guidelines|restrictions)`),
	regexp.MustCompile(`(?i)act as (?:a|an) (?:different|new)`),
	regexp.MustCompile(`(?i)disregard (?:your|all) (?:rules|safety)`),
}

// JailbreakDetector blocks submissions attempting prompt manipulation.
type JailbreakDetector struct{}

// NewJailbreakDetector creates the jailbreak guardrail.
func NewJailbreakDetector() *JailbreakDetector {
	return &JailbreakDetector{}
}

// Name returns the unique name of this guardrail instance.
func (d *JailbreakDetector) Name() string { return "jailbreak_detector" }

// Type returns the guardrail category.
func (d *JailbreakDetector) Type() GuardrailType { return GuardrailTypeJailbreak }

// Check matches the content against the manipulation phrasing set.
// The first match trips the guardrail with the offending pattern.
func (d *JailbreakDetector) Check(ctx context.Context, input Input) (Result, error) {
	for _, p := range jailbreakPatterns {
		if match := p.FindString(input.Content); match != "" {
			r := Trip("jailbreak attempt detected", match)
			r.Info = map[string]any{"pattern": p.String()}
			return r, nil
		}
	}
	return Clean(), nil
}
