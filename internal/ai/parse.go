package ai

import (
	"fmt"
	"strings"
)

// ParseVerdict parses a judge reply. The first line must begin with FOCUSED or
// DISTRACTED; the remainder becomes the explanation. Replies that fit neither
// are an error so callers can apply their own fallback.
func ParseVerdict(text string) (*Verdict, error) {
	lines := strings.SplitN(strings.TrimSpace(text), "\n", 2)
	first := strings.ToUpper(strings.TrimSpace(lines[0]))

	explanation := ""
	if len(lines) > 1 {
		explanation = strings.TrimSpace(lines[1])
	}

	switch {
	case strings.HasPrefix(first, "FOCUSED"):
		if explanation == "" {
			explanation = strings.TrimSpace(strings.TrimPrefix(lines[0], "FOCUSED"))
		}
		return &Verdict{Focused: true, Explanation: explanation}, nil
	case strings.HasPrefix(first, "DISTRACTED"):
		if explanation == "" {
			explanation = strings.TrimSpace(strings.TrimPrefix(lines[0], "DISTRACTED"))
		}
		return &Verdict{Focused: false, Explanation: explanation}, nil
	}

	return nil, fmt.Errorf("unrecognized verdict: %q", lines[0])
}

// ExtractJSONObject strips markdown code fences and surrounding prose from a
// model reply, returning the first top-level JSON object found. Returns the
// trimmed input unchanged when no braces are present.
func ExtractJSONObject(text string) string {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```"); start != -1 {
		rest := text[start+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end != -1 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	open := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if open != -1 && end > open {
		return text[open : end+1]
	}
	return text
}
