package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencePattern matches markdown code fences with an optional language tag.
var fencePattern = regexp.MustCompile("(?s)```(\\w*)\\s*\\n(.+?)\\n```")

// ExtractJSON recovers a JSON document from a completion response that may
// wrap it in markdown fences or surrounding prose. Fenced ```json blocks are
// preferred; otherwise the first balanced object or array is used.
func ExtractJSON(response string) (string, error) {
	for _, match := range fencePattern.FindAllStringSubmatch(response, -1) {
		lang := strings.ToLower(match[1])
		if lang != "" && lang != "json" {
			continue
		}
		body := strings.TrimSpace(match[2])
		if looksLikeJSON(body) && json.Valid([]byte(body)) {
			return body, nil
		}
	}

	if doc, ok := firstBalancedJSON(response); ok {
		return doc, nil
	}

	return "", fmt.Errorf("no valid JSON document found in response")
}

// ExtractJSONAs extracts JSON from the response and unmarshals it into T.
func ExtractJSONAs[T any](response string) (T, error) {
	var out T

	doc, err := ExtractJSON(response)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal extracted JSON: %w", err)
	}
	return out, nil
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// firstBalancedJSON scans for the first '{' or '[' and returns the balanced
// document starting there, if it parses.
func firstBalancedJSON(s string) (string, bool) {
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
			// Skip structural characters inside strings.
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				doc := s[start : i+1]
				if json.Valid([]byte(doc)) {
					return doc, true
				}
				return "", false
			}
		}
	}

	return "", false
}
