package worklog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	trailingTagPattern = regexp.MustCompile(`\s*#([A-Za-z0-9가-힣_]+)\s*$`)
	sourcePattern      = regexp.MustCompile(`(?s)^([^:]+):\s*(.*)$`)
)

// Parsed is the result of splitting free text into source, content and tag.
type Parsed struct {
	Source  *string `json:"source"`
	Content string  `json:"content"`
	Tag     *string `json:"task_id_tag"`
}

// ParseContent extracts an optional trailing #tag and an optional leading
// "source:" prefix from text. It never fails.
func ParseContent(text string) Parsed {
	rest := strings.TrimSpace(text)
	if rest == "" {
		return Parsed{}
	}

	var tag *string
	if loc := trailingTagPattern.FindStringSubmatchIndex(rest); loc != nil {
		t := "#" + rest[loc[2]:loc[3]]
		tag = &t
		rest = strings.TrimSpace(rest[:loc[0]])
	}

	if m := sourcePattern.FindStringSubmatch(rest); m != nil {
		source := strings.TrimSpace(m[1])
		return Parsed{Source: &source, Content: strings.TrimSpace(m[2]), Tag: tag}
	}
	return Parsed{Content: rest, Tag: tag}
}

// ExtractTag returns the trailing tag of text, if any.
func ExtractTag(text string) (string, bool) {
	p := ParseContent(text)
	if p.Tag == nil {
		return "", false
	}
	return *p.Tag, true
}

// MatchProjectCode finds the registered project code referenced by text.
// A code at the start of the trailing tag wins, then a substring of the
// untagged body, then a substring of the whole text. Longer codes are tried
// first so a short code never matches inside a longer one.
func MatchProjectCode(text string, codes []string) (string, bool) {
	if strings.TrimSpace(text) == "" || len(codes) == 0 {
		return "", false
	}

	sorted := make([]string, 0, len(codes))
	for _, c := range codes {
		if c != "" {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := len([]rune(sorted[i])), len([]rune(sorted[j]))
		if li != lj {
			return li > lj
		}
		return sorted[i] < sorted[j]
	})

	body := strings.TrimSpace(text)
	if loc := trailingTagPattern.FindStringSubmatchIndex(body); loc != nil {
		tagBody := body[loc[2]:loc[3]]
		for _, code := range sorted {
			if strings.HasPrefix(tagBody, code) {
				return code, true
			}
		}
		body = body[:loc[0]]
	}

	for _, haystack := range []string{body, text} {
		for _, code := range sorted {
			if strings.Contains(haystack, code) {
				return code, true
			}
		}
	}
	return "", false
}

// MaxTagSequence is the last daily sequence that fits the two-digit tag field.
const MaxTagSequence = 99

// FormatTaskTag renders a tag as #<code><Y><MM><DD><NN>, where Y is the last
// digit of the year and NN the per-project daily sequence.
func FormatTaskTag(code string, day time.Time, seq int) string {
	return fmt.Sprintf("#%s%d%02d%02d%02d", code, day.Year()%10, int(day.Month()), day.Day(), seq)
}
