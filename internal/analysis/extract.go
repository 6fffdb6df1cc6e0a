// Package analysis classifies feedback text via the inference endpoint and
// parses best-effort JSON out of free-form model output.
package analysis

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject finds the first brace-delimited JSON object in free-form
// model output and unmarshals it. Model responses are untrusted input: the
// object may be wrapped in prose or markdown fences, absent, or malformed.
// Returns false when no parseable object is found.
func ExtractJSONObject(text string) (map[string]any, bool) {
	for start := 0; ; {
		open := strings.IndexByte(text[start:], '{')
		if open < 0 {
			return nil, false
		}
		open += start

		end, ok := matchBrace(text, open)
		if ok {
			var obj map[string]any
			if err := json.Unmarshal([]byte(text[open:end+1]), &obj); err == nil {
				return obj, true
			}
		}

		start = open + 1
	}
}

// matchBrace returns the index of the brace closing the object opened at
// start, tracking nesting and skipping braces inside string literals.
func matchBrace(text string, start int) (int, bool) {
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
				return i, true
			}
		}
	}
	return 0, false
}
