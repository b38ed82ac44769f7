package worklog

import (
	"fmt"
	"strings"
)

const maxKeywords = 5

// ValidateCreate checks the fields needed to store a new entry.
func ValidateCreate(req CreateRequest) error {
	if strings.TrimSpace(req.RawInput) == "" && strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if !req.LogType.Valid() {
		return fmt.Errorf("%w: unknown log type %q", ErrInvalidInput, req.LogType)
	}
	if !req.TaskState.Valid() {
		return ErrInvalidState
	}
	return nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
