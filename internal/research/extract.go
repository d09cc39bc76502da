package research

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencePattern matches markdown code fences with an optional language tag.
var fencePattern = regexp.MustCompile("(?s)```(\\w*)\\s*\\n(.+?)\\n```")

// ExtractJSON pulls a JSON document out of raw model output. Models
// frequently wrap structured output in markdown fences or surround it
// with prose, so extraction tries, in order:
//
//  1. a ```json (or untagged) fenced block containing valid JSON
//  2. the first balanced {...} or [...] span in the text
//
// Returns an error when no valid JSON document is present.
func ExtractJSON(output string) (string, error) {
	for _, match := range fencePattern.FindAllStringSubmatch(output, -1) {
		lang := strings.ToLower(match[1])
		if lang != "" && lang != "json" {
			continue
		}
		content := strings.TrimSpace(match[2])
		if json.Valid([]byte(content)) {
			return content, nil
		}
	}

	if span, ok := balancedSpan(output); ok {
		return span, nil
	}

	return "", fmt.Errorf("no valid JSON document found in model output")
}

// DecodeInto extracts JSON from raw model output and unmarshals it
// into v.
func DecodeInto(output string, v any) error {
	doc, err := ExtractJSON(output)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(doc), v); err != nil {
		return fmt.Errorf("failed to decode model output: %w", err)
	}
	return nil
}

// balancedSpan finds the first complete JSON object or array in s by
// bracket matching, respecting string literals and escapes.
func balancedSpan(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}

	open := s[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				span := s[start : i+1]
				if json.Valid([]byte(span)) {
					return span, true
				}
				return "", false
			}
		}
	}
	return "", false
}
