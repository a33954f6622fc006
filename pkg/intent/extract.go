package intent

import (
	"fmt"
	"strings"
)

// ExtractJSON returns the first complete JSON object embedded in raw LLM
// text. Models wrap their output in markdown code fences or surround it
// with prose, so the extractor strips fences and scans for a balanced
// top-level object instead of trusting the whole response.
func ExtractJSON(text string) ([]byte, error) {
	text = stripCodeFences(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(text[start : i+1]), nil
			}
		}
	}
	return nil, fmt.Errorf("unterminated JSON object in response")
}

func stripCodeFences(text string) string {
	idx := strings.Index(text, "```")
	if idx < 0 {
		return text
	}
	rest := text[idx+3:]
	// Fence may carry a language tag such as ```json.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		first := strings.TrimSpace(rest[:nl])
		if first == "" || !strings.ContainsAny(first, "{}") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
