package assist

import (
	"fmt"
	"strings"

	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/worklog"
)

const parseInstructions = `You parse a project manager's quick work-log entries.

## Input format
"[project code] [F/T/W/I] [category code?] [content]"

Examples:
- "SC F H7 Director Moon submitted the occupancy documents"
- "PGD T asked for the quote to be reviewed again"

## Log types
- F: received (information or a request from someone)
- T: sent (information or an instruction to someone)
- W: executed (work I did myself)
- I: info (a fact, issue or decision worth recording)

## Category codes
H1-H9 permits, D1-D9 design, C1-C9 construction, K1-K9 contracts, E1-E9 other.

## Content rules
1. Keep titles, names and category codes the user wrote.
2. For F write "sender title: content"; for T write "recipient title: content".
3. At most 80 characters.
4. Keep a trailing #tag exactly as written.

## Keywords
Up to 5 nouns or proper nouns useful for search.

## Response (JSON only)
{"projectCode": "SC", "logType": "F", "categoryCode": "H7", "content": "Director Moon: occupancy documents received", "extractedKeywords": ["occupancy", "documents"]}

Use null for projectCode when no listed project matches, and null for categoryCode when none is given.
If the input clearly describes several separate events, return {"entries": [ ... ]} with one object per event.
`

const classifyInstructions = `You decide, for each work log below, only whether it should be tracked as a task.

- isTask true: the user must follow up (a request, instruction, submission, check or review is pending).
- isTask false: plain information, something already handled, a one-off event, reference material.

Do not judge priority, state or tag format. Use the log ids exactly as listed.
Return every listed log exactly once.

## Response (JSON only, no trailing commas)
{"results": [{"logId": "<id>", "isTask": true}, {"logId": "<id>", "isTask": false}]}
`

const assignInstructions = `For each of today's logs decide whether follow-up is needed.
- Follow-up needed: attach it to an existing task tag from the open task list, or group it into a new task.
- Already handled today (for example a request received and answered the same day): taskIdTag null.
- Recent logs and the previous report are context only.

## Output (JSON only, inside the block)
[ASSIGNMENTS]
{
  "logAssignments": [{"logId": "<today's log id>", "taskIdTag": "#SC6020905"}, {"logId": "<id>", "taskIdTag": null}],
  "newTasks": [{"description": "one line", "projectCode": "SC", "priority": "high", "logIds": ["<id>"]}]
}
[/ASSIGNMENTS]

## Rules
- logAssignments: one entry per log of today, using only the ids given.
- taskIdTag must be an existing tag from the open task list. New tasks get their tag from the server; link them with logIds only.
- projectCode must be one of the registered project codes.
`

func projectLines(projects []project.ProjectSummary) string {
	if len(projects) == 0 {
		return "- (none)"
	}
	lines := make([]string, 0, len(projects))
	for _, p := range projects {
		lines = append(lines, fmt.Sprintf("- %s: %s", p.Code, p.Name))
	}
	return strings.Join(lines, "\n")
}

func parsePrompt(raw string, projects []project.ProjectSummary) string {
	var b strings.Builder
	b.WriteString(parseInstructions)
	b.WriteString("\n## Registered projects\n")
	b.WriteString(projectLines(projects))
	b.WriteString("\n\n## Input\n")
	b.WriteString(raw)
	b.WriteString("\n")
	return b.String()
}

func classifyPrompt(candidates []worklog.Entry) string {
	var b strings.Builder
	b.WriteString(classifyInstructions)
	b.WriteString("\n## Logs\n")
	for _, e := range candidates {
		fmt.Fprintf(&b, "- id=%s date=%s type=%s %s\n", e.ID, e.LogDate, e.LogType, logText(e))
	}
	return b.String()
}

func assignPrompt(in DailyInput, projects []project.ProjectSummary) string {
	var b strings.Builder
	b.WriteString(assignInstructions)
	b.WriteString("\n## Registered projects\n")
	b.WriteString(projectLines(projects))

	fmt.Fprintf(&b, "\n\n## Today's logs (%s)\n", in.Day)
	for _, e := range in.Logs {
		fmt.Fprintf(&b, "- id=%s [%s] project=%s %s\n", e.ID, e.LogType, projectCode(e), logText(e))
	}

	b.WriteString("\n## Open tasks\n")
	if len(in.OpenTasks) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, t := range in.OpenTasks {
		fmt.Fprintf(&b, "- %s [%s] %s\n", t.Tag, t.State, t.Description)
	}

	b.WriteString("\n## Recent logs (context)\n")
	if len(in.Recent) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, e := range in.Recent {
		tag := e.Tag()
		if tag == "" {
			tag = "-"
		}
		fmt.Fprintf(&b, "- %s [%s] %s tag=%s\n", e.LogDate, e.LogType, logText(e), tag)
	}

	if strings.TrimSpace(in.PreviousReport) != "" {
		b.WriteString("\n## Previous report (context)\n")
		b.WriteString(in.PreviousReport)
		b.WriteString("\n")
	}
	return b.String()
}

func logText(e worklog.Entry) string {
	if e.Source != nil {
		return *e.Source + ": " + e.Content
	}
	return e.Content
}

func projectCode(e worklog.Entry) string {
	if e.Project != nil {
		return e.Project.Code
	}
	return "-"
}
