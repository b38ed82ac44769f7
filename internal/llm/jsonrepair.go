package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	codeFencePattern     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
	emptyElementPattern  = regexp.MustCompile(`,(\s*,)+`)
	lineCommentPattern   = regexp.MustCompile(`(?m)^\s*//.*$|\s+//[^"\n]*$`)
)

// StripCodeFence returns the body of the first fenced block, or text trimmed.
func StripCodeFence(text string) string {
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ExtractBlock returns the text between [name] and [/name], if present.
func ExtractBlock(text, name string) (string, bool) {
	openTag, closeTag := "["+name+"]", "[/"+name+"]"
	start := strings.Index(text, openTag)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(openTag):]
	end := strings.Index(rest, closeTag)
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// StripLineComments removes // comments that models sometimes add to JSON.
func StripLineComments(text string) string {
	return lineCommentPattern.ReplaceAllString(text, "")
}

// Repair applies the usual fixes to model JSON: trailing commas before a
// closing bracket and runs of empty elements.
func Repair(text string) string {
	text = trailingCommaPattern.ReplaceAllString(text, "$1")
	text = emptyElementPattern.ReplaceAllString(text, ",")
	return text
}

// outermost cuts text down to its first balanced-looking JSON object or array.
func outermost(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end < start {
		return text[start:]
	}
	return text[start : end+1]
}

// ParseJSON extracts and validates the JSON document in a model reply.
// It never returns an empty result on failure: unparseable output is
// ErrMalformedResponse.
func ParseJSON(text string) (gjson.Result, error) {
	body := StripCodeFence(text)
	if body == "" {
		return gjson.Result{}, ErrEmptyResponse
	}
	candidates := []string{body, outermost(body)}
	for _, c := range candidates {
		if gjson.Valid(c) {
			return gjson.Parse(c), nil
		}
		if fixed := Repair(c); gjson.Valid(fixed) {
			return gjson.Parse(fixed), nil
		}
	}
	return gjson.Result{}, fmt.Errorf("%w: %s", ErrMalformedResponse, preview(body))
}

func preview(s string) string {
	const limit = 120
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
