package webhook

import (
	"regexp"
	"strings"
)

var (
	rootTagPattern = regexp.MustCompile(`(?is)^\s*<\s*(!doctype|html|head|body)[\s>]`)
	openTagPattern = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*)(?:\s[^<>]*)?>`)
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
)

// looksLikeHTML reports whether s is genuine markup rather than a plain
// string with stray angle brackets: either a document-level root tag or at
// least one balanced open/close pair. Strings starting with { or [ are JSON
// candidates and never count as HTML.
func looksLikeHTML(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" || t[0] == '{' || t[0] == '[' {
		return false
	}
	if rootTagPattern.MatchString(t) {
		return true
	}
	lower := strings.ToLower(t)
	for _, m := range openTagPattern.FindAllStringSubmatch(t, -1) {
		if strings.Contains(lower, "</"+strings.ToLower(m[1])+">") {
			return true
		}
	}
	return false
}

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#x27;", "'",
)

// sanitizeHTML strips tags and decodes the small entity set the upstream
// workflow engine emits. Raw markup with no extractable text sanitizes to
// the empty string.
func sanitizeHTML(s string) string {
	return strings.TrimSpace(entityReplacer.Replace(tagPattern.ReplaceAllString(s, "")))
}
