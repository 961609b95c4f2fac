package report

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
)

// CleanMarkdown trims a model answer and strips an outer code fence
// (```markdown ... ``` or ``` ... ```).
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimPrefix(cleaned, "```")
	// drop the info string of the opening fence
	if first, rest, ok := strings.Cut(cleaned, "\n"); ok && !strings.Contains(strings.TrimSpace(first), " ") {
		cleaned = rest
	}
	return strings.TrimSpace(cleaned)
}

// RenderMarkdown converts markdown to HTML. Raw HTML in the source is not passed
// through, so the result is safe to embed.
func RenderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
