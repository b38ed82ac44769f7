package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rpggio/worklog/internal/domain/worklog"
)

const (
	otherProject = "Other"
	noSource     = "(no source)"
	noneLine     = "- none"
)

// OpenTask is one line of the task section, already resolved to the state in
// force at the end of the report day.
type OpenTask struct {
	LogID       string
	Tag         string
	Description string
	Source      *string
	State       worklog.TaskState
	DueDate     *string
}

// Build assembles the report text from its deterministic inputs.
func Build(tasks []OpenTask, dayLogs, completed []worklog.Entry) string {
	var b strings.Builder
	writeTasks(&b, tasks)
	b.WriteString("\n2. Schedule\n   ")
	b.WriteString(noneLine)
	b.WriteString("\n\n3. Log and communication history\n")
	b.WriteString(historySection(dayLogs))
	b.WriteString("\n\n4. Completed items\n")
	b.WriteString(completedSection(completed))
	return b.String()
}

func writeTasks(b *strings.Builder, tasks []OpenTask) {
	var high, medium, waiting []OpenTask
	for _, t := range tasks {
		switch t.State {
		case worklog.StateHigh:
			high = append(high, t)
		case worklog.StateMedium:
			medium = append(medium, t)
		case worklog.StateDone:
		default:
			waiting = append(waiting, t)
		}
	}

	b.WriteString("1. Tasks\n")
	for _, bucket := range []struct {
		title string
		items []OpenTask
	}{
		{"A. High priority", high},
		{"B. Medium priority", medium},
		{"C. Waiting", waiting},
	} {
		fmt.Fprintf(b, "   %s\n", bucket.title)
		if len(bucket.items) == 0 {
			fmt.Fprintf(b, "   %s\n", noneLine)
			continue
		}
		for _, t := range bucket.items {
			fmt.Fprintf(b, "   - %s\n", taskLine(t))
		}
	}
}

func taskLine(t OpenTask) string {
	line := t.Description
	if src := trimmed(t.Source); src != "" {
		line = src + ": " + line
	}
	if t.Tag != "" {
		line += " → " + t.Tag
	}
	if due := trimmed(t.DueDate); due != "" {
		line += fmt.Sprintf(" (due: %s)", due)
	}
	return line
}

func logLine(e worklog.Entry) string {
	src := trimmed(e.Source)
	if src == "" {
		src = noSource
	}
	line := fmt.Sprintf("[%s] %s: %s", e.LogType, src, e.Content)
	if tag := e.Tag(); tag != "" {
		line += " → " + tag
	}
	return line
}

func projectLabel(e worklog.Entry) string {
	if e.Project != nil {
		if name := strings.TrimSpace(e.Project.Name); name != "" {
			return name
		}
	}
	return otherProject
}

func groupKey(e worklog.Entry) string {
	if tag := e.Tag(); tag != "" {
		return tag
	}
	return trimmed(e.Source)
}

// historySection groups the day's logs by project, then by tag or source, then
// orders by creation time.
func historySection(logs []worklog.Entry) string {
	if len(logs) == 0 {
		return "   " + noneLine
	}
	sorted := make([]worklog.Entry, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := projectLabel(sorted[i]), projectLabel(sorted[j])
		if pi != pj {
			return pi < pj
		}
		gi, gj := groupKey(sorted[i]), groupKey(sorted[j])
		if gi != gj {
			return gi < gj
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var lines []string
	current := ""
	for i, e := range sorted {
		label := projectLabel(e)
		if i == 0 || label != current {
			current = label
			lines = append(lines, label)
		}
		lines = append(lines, " - "+logLine(e))
	}
	return strings.Join(lines, "\n")
}

// completedSection lists entries that carry a tag or belong to a project.
func completedSection(entries []worklog.Entry) string {
	var lines []string
	for _, e := range entries {
		if e.Tag() == "" && !e.HasProject() {
			continue
		}
		lines = append(lines, " - "+logLine(e))
	}
	if len(lines) == 0 {
		return "   " + noneLine
	}
	return strings.Join(lines, "\n")
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
