package airesolver

import "strings"

// Sanitize reduces a free-text model reply to its JSON payload. Code fence
// markers are stripped first, then the first top-level {...} substring is
// extracted, falling back to the first [...]. A reply with neither is a
// no-JSON-structure failure, distinct from a later parse failure.
func Sanitize(slot, raw string) (string, error) {
	cleaned := stripFences(raw)

	if candidate, ok := extractBalanced(cleaned, '{', '}'); ok {
		return candidate, nil
	}
	if candidate, ok := extractBalanced(cleaned, '[', ']'); ok {
		return candidate, nil
	}
	return "", &ResolutionError{
		Kind:    ErrKindNoStructure,
		Slot:    slot,
		Message: "response contains no JSON object or array",
		Raw:     raw,
	}
}

func stripFences(s string) string {
	var sb strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// extractBalanced returns the first substring from the first open delimiter
// to its balancing close delimiter. Delimiters inside JSON strings are
// ignored. An unbalanced open delimiter yields no match.
func extractBalanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
