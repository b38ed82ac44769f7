package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `worklog keeps a project manager's work log and turns it into tasks and daily reports.

Core concepts:
- Project: registered with a short code (2-4 letters or Hangul). The code prefixes task tags.
- Log: one work event, typed F (received), T (sent), W (executed) or I (info).
- Task tag: "#" + code + YMMDD + two-digit sequence, e.g. #SC6020905. Logs sharing a tag are one task.
- Task state: high, medium, low, review, done, or empty. Every change is kept in a history ledger.
- Report: one per day, built from the task states in force at the end of that day.

Default workflow:
1) Record: capture_log for raw quick entries, or create_log for structured ones.
2) Tidy: sync_logs fills missing projects and tags from raw input; classify_tasks marks task candidates.
3) Track: list_tasks and set_task_state; create_task for tasks nobody logged.
4) Report: generate_report(date) assigns tags for the day and stores the report. Regenerating is safe.

Merges never overwrite a value a user already set.

Docs:
- worklog://docs/tags (tag format and sync rules)
- worklog://docs/reports (report layout and history semantics)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "worklog://docs/tags",
		Name:        "docs_tags",
		Title:       "Task tags and sync",
		Description: "How task tags are written, parsed and backfilled.",
		Content: `# Task tags

A tag is written at the very end of a log, after whitespace: ` + "`SC W checked the drawings #SC6020905`" + `.
Letters, digits, Hangul and underscores are allowed after the "#".

New tags come from the server only: ` + "`create_task`" + ` and daily assignment allocate the next
sequence for (project code, date), so two calls never receive the same tag.

## sync_logs

1. Project backfill: a log without a project gets the project whose code appears in its raw input.
   A code at the start of the trailing tag wins over a code in the body; longer codes win over shorter.
2. Tag backfill: a log without a tag gets the trailing tag of its raw input.
3. State alignment: logs sharing a tag take the state of the most recently updated member that has one.

Running sync twice changes nothing the second time.
`,
	},
	{
		URI:         "worklog://docs/reports",
		Name:        "docs_reports",
		Title:       "Daily reports",
		Description: "Report sections and how task states are resolved for a past day.",
		Content: `# Daily reports

` + "`generate_report(date)`" + ` produces four sections:

1. Tasks, bucketed into A. High priority, B. Medium priority and C. Waiting (low and review).
   Tasks are logs up to the previous day with a project and a tag or state. Their state is the one
   recorded in the history ledger at the end of the report day, so regenerating an old day shows
   what was true then. Done tasks are left out.
2. Schedule.
3. Log and communication history: the day's logs by project, then by tag or source, then time.
4. Completed items: tagged logs that reached done during the day.

Before building the report the model links the day's logs to open task tags. It only fills logs that
have no tag yet.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
