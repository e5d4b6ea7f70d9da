package parse

import "strings"

const fence = "```"

// ExtractFencedBlock returns the body of the last markdown code fence opened
// with ```language (for example ```json). The closing fence is optional: a
// response cut off mid-block still yields what was written. The second result
// is false when no such fence exists.
//
// The last block wins because models tend to restate a corrected version after
// a first attempt.
func ExtractFencedBlock(text, language string) (string, bool) {
	opening := fence + language
	start := strings.LastIndex(text, opening)
	if start < 0 {
		return "", false
	}
	body := text[start+len(opening):]

	// the language tag must end the opening line (```json, not ```jsonc)
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		if strings.TrimSpace(body[:newline]) != "" {
			return "", false
		}
		body = body[newline+1:]
	}

	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}
