package mailer

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a parsed template file: optional YAML frontmatter plus body.
type Template struct {
	Metadata map[string]any
	Body     string
}

// Subject returns the "subject" frontmatter value, matched case-insensitively.
func (t *Template) Subject() string {
	for k, v := range t.Metadata {
		if s, ok := v.(string); ok && strings.EqualFold(k, "subject") {
			return s
		}
	}
	return ""
}

// ParseTemplate splits content into frontmatter metadata and body.
// Frontmatter is recognised only when the first line is exactly "---";
// anything else is treated as a plain body, so ordinary HTML files parse as-is.
func ParseTemplate(content []byte) (*Template, error) {
	first, rest, found := cutLine(content)
	if !found || string(bytes.TrimSpace(first)) != "---" {
		return &Template{Metadata: map[string]any{}, Body: string(content)}, nil
	}

	var front []byte
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = cutLine(rest)
		if string(bytes.TrimSpace(line)) == "---" {
			meta := map[string]any{}
			if len(bytes.TrimSpace(front)) > 0 {
				if err := yaml.Unmarshal(front, &meta); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
				}
			}
			return &Template{Metadata: meta, Body: string(rest)}, nil
		}
		front = append(front, line...)
		front = append(front, '\n')
	}

	return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
}

// cutLine splits b at the first newline, dropping the newline and a trailing \r.
func cutLine(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found
}
