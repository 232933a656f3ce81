package webhook

import (
	"encoding/json"
	"strings"
)

// contentFields is the ordered candidate list scanned on object replies.
// output and message are what workflow nodes emit most often; the generic
// data/result names are last-resort.
var contentFields = []string{"output", "message", "content", "text", "response", "data", "result"}

// ExtractRaw decodes an HTTP response body and extracts a displayable reply.
// Bodies that are not valid JSON are treated as plain strings.
func ExtractRaw(body []byte) NormalizedResponse {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return Extract(string(body))
	}
	return Extract(value)
}

// Extract pulls displayable content and an optional source out of an
// arbitrary reply value. It is total and deterministic: any shape it cannot
// interpret yields an empty NormalizedResponse rather than an error.
func Extract(body any) NormalizedResponse {
	switch v := body.(type) {
	case []any:
		// Only the first element is considered.
		if len(v) == 0 {
			return NormalizedResponse{}
		}
		return Extract(v[0])
	case string:
		return extractString(v)
	case map[string]any:
		return extractObject(v)
	default:
		return NormalizedResponse{}
	}
}

func extractString(s string) NormalizedResponse {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return NormalizedResponse{}
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			if arr, ok := parsed.([]any); ok && len(arr) > 0 {
				if first, ok := arr[0].(string); ok {
					// An array of strings is already display text.
					return NormalizedResponse{Content: first}
				}
			}
			return Extract(parsed)
		}
		// Not JSON after all; a leading brace also rules out HTML.
		return NormalizedResponse{Content: trimmed}
	}
	if looksLikeHTML(trimmed) {
		clean := sanitizeHTML(trimmed)
		if clean == "" || looksLikeHTML(clean) {
			// Markup with no extractable text is never rendered raw.
			return NormalizedResponse{}
		}
		return NormalizedResponse{Content: clean}
	}
	return NormalizedResponse{Content: trimmed}
}

func extractObject(m map[string]any) NormalizedResponse {
	res := NormalizedResponse{}
	if raw, ok := m["source"].(string); ok {
		res.Source = strings.TrimSpace(raw)
	}
	for _, field := range contentFields {
		raw, ok := m[field].(string)
		if !ok {
			continue
		}
		candidate := strings.TrimSpace(raw)
		if candidate == "" {
			continue
		}
		if looksLikeHTML(candidate) {
			clean := sanitizeHTML(candidate)
			if clean == "" || looksLikeHTML(clean) {
				// One unusable field does not abort the scan.
				continue
			}
			candidate = clean
		}
		res.Content = candidate
		return res
	}
	return res
}
