package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/worklog/internal/domain/assist"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
)

const defaultLogLimit = 100

// EmptyParams is the input of tools that take no arguments.
type EmptyParams struct{}

type tools struct {
	svc    Services
	loc    *time.Location
	logger *slog.Logger
}

// addTool registers a tool whose result is returned as JSON text.
func addTool[In any](server *sdkmcp.Server, logger *slog.Logger, name, description string, fn func(ctx context.Context, userID string, in In) (any, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			out, err := fn(ctx, getUserID(ctx), in)
			if err != nil {
				logger.Debug("tool failed", "tool", name, "error", err)
				return nil, nil, toolError(err)
			}
			data, err := json.Marshal(out)
			if err != nil {
				return nil, nil, fmt.Errorf("encoding %s result: %w", name, err)
			}
			return &sdkmcp.CallToolResult{
				Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
			}, nil, nil
		})
}

func (t *tools) today() string {
	return worklog.Today(time.Now(), t.loc)
}

func (t *tools) dayOrToday(day string) string {
	if day == "" {
		return t.today()
	}
	return day
}

func (t *tools) register(server *sdkmcp.Server) {
	t.registerProjects(server)
	t.registerLogs(server)
	t.registerTasks(server)
	t.registerReports(server)
	t.registerSearch(server)
}

func (t *tools) registerProjects(server *sdkmcp.Server) {
	projects := t.svc.Projects

	addTool(server, t.logger, "create_project", "Register a project. Its code prefixes task tags.",
		func(ctx context.Context, userID string, in CreateProjectParams) (any, error) {
			return projects.Create(ctx, userID, project.CreateRequest{
				Name:        in.Name,
				Code:        in.Code,
				Description: in.Description,
				Status:      project.Status(in.Status),
			})
		})

	addTool(server, t.logger, "list_projects", "List projects with log and open task counts",
		func(ctx context.Context, userID string, in ListProjectsParams) (any, error) {
			list, err := projects.List(ctx, userID, project.Status(in.Status))
			if err != nil {
				return nil, err
			}
			return ProjectsResponse{Projects: list}, nil
		})

	addTool(server, t.logger, "get_project", "Get a project by id",
		func(ctx context.Context, userID string, in IDParams) (any, error) {
			return projects.Get(ctx, userID, in.ID)
		})

	addTool(server, t.logger, "update_project", "Update project fields; omitted fields stay unchanged",
		func(ctx context.Context, userID string, in UpdateProjectParams) (any, error) {
			req := project.UpdateRequest{ID: in.ID, Name: in.Name, Code: in.Code, Description: in.Description}
			if in.Status != nil {
				status := project.Status(*in.Status)
				req.Status = &status
			}
			return projects.Update(ctx, userID, req)
		})

	addTool(server, t.logger, "delete_project", "Delete a project. Its logs are kept without a project.",
		func(ctx context.Context, userID string, in IDParams) (any, error) {
			if err := projects.Delete(ctx, userID, in.ID); err != nil {
				return nil, err
			}
			return DeletedResponse{ID: in.ID, Deleted: true}, nil
		})
}

func (t *tools) registerLogs(server *sdkmcp.Server) {
	entries := t.svc.Entries

	if t.svc.Assist != nil {
		assistSvc := t.svc.Assist
		addTool(server, t.logger, "capture_log", "Parse a quick raw entry with the model and store the resulting logs",
			func(ctx context.Context, userID string, in CaptureLogParams) (any, error) {
				logs, err := assistSvc.Capture(ctx, userID, assist.CaptureRequest{RawInput: in.RawInput, LogDate: in.LogDate})
				if err != nil {
					return nil, err
				}
				return LogsResponse{Logs: logs}, nil
			})
	}

	addTool(server, t.logger, "create_log", "Store a structured log entry",
		func(ctx context.Context, userID string, in CreateLogParams) (any, error) {
			return entries.Create(ctx, userID, worklog.CreateRequest{
				Content:      in.Content,
				Source:       in.Source,
				LogType:      worklog.LogType(in.LogType),
				CategoryCode: in.CategoryCode,
				Keywords:     in.Keywords,
				ProjectID:    in.ProjectID,
				LogDate:      in.LogDate,
				TaskTag:      in.TaskTag,
				TaskState:    worklog.TaskState(in.TaskState),
			})
		})

	addTool(server, t.logger, "get_log", "Get a log entry by id",
		func(ctx context.Context, userID string, in IDParams) (any, error) {
			return entries.Get(ctx, userID, in.ID)
		})

	addTool(server, t.logger, "list_logs", "List log entries, newest first, by date, range, project, type, tag or keyword",
		func(ctx context.Context, userID string, in ListLogsParams) (any, error) {
			limit := in.Limit
			if limit <= 0 {
				limit = defaultLogLimit
			}
			logs, err := entries.List(ctx, userID, worklog.ListOptions{
				Day:       in.Date,
				From:      in.From,
				To:        in.To,
				ProjectID: in.ProjectID,
				LogType:   worklog.LogType(in.LogType),
				Tag:       in.Tag,
				Keyword:   in.Keyword,
				Limit:     limit,
				Offset:    in.Offset,
			})
			if err != nil {
				return nil, err
			}
			return LogsResponse{Logs: logs}, nil
		})

	addTool(server, t.logger, "update_log", "Update log fields. A task_state change is recorded in the history ledger.",
		func(ctx context.Context, userID string, in UpdateLogParams) (any, error) {
			req := worklog.UpdateRequest{
				ID:           in.ID,
				Content:      in.Content,
				Source:       in.Source,
				CategoryCode: in.CategoryCode,
				ProjectID:    in.ProjectID,
				LogDate:      in.LogDate,
				TaskTag:      in.TaskTag,
			}
			if in.LogType != nil {
				lt := worklog.LogType(*in.LogType)
				req.LogType = &lt
			}
			if in.TaskState != nil {
				st := worklog.TaskState(*in.TaskState)
				req.TaskState = &st
			}
			return entries.Update(ctx, userID, req)
		})

	addTool(server, t.logger, "delete_log", "Delete a log entry and its history",
		func(ctx context.Context, userID string, in IDParams) (any, error) {
			if err := entries.Delete(ctx, userID, in.ID); err != nil {
				return nil, err
			}
			return DeletedResponse{ID: in.ID, Deleted: true}, nil
		})

	addTool(server, t.logger, "sync_logs", "Backfill projects and tags from raw input and align states within each tag",
		func(ctx context.Context, userID string, _ EmptyParams) (any, error) {
			return t.svc.Sync.Sync(ctx, userID)
		})
}

func (t *tools) registerTasks(server *sdkmcp.Server) {
	entries := t.svc.Entries

	addTool(server, t.logger, "create_task", "Create a task under a project with a freshly allocated tag",
		func(ctx context.Context, userID string, in CreateTaskParams) (any, error) {
			return entries.CreateTask(ctx, userID, worklog.CreateTaskRequest{
				ProjectID:   in.ProjectID,
				Description: in.Description,
				Source:      in.Source,
				Priority:    worklog.TaskState(in.Priority),
				Day:         in.Date,
			})
		})

	addTool(server, t.logger, "list_tasks", "List the task board: logs with a project that carry a tag, a state or a task review",
		func(ctx context.Context, userID string, in ListTasksParams) (any, error) {
			opts := worklog.TaskListOptions{ProjectID: in.ProjectID, WithLogs: in.WithLogs, Limit: in.Limit}
			for _, s := range in.States {
				opts.States = append(opts.States, worklog.TaskState(s))
			}
			tasks, err := entries.ListTasks(ctx, userID, opts)
			if err != nil {
				return nil, err
			}
			return TasksResponse{Tasks: tasks}, nil
		})

	addTool(server, t.logger, "set_task_state", "Change the task state of a log; same-value writes are no-ops",
		func(ctx context.Context, userID string, in SetTaskStateParams) (any, error) {
			entry, changed, err := entries.SetState(ctx, userID, in.ID, worklog.TaskState(in.State))
			if err != nil {
				return nil, err
			}
			return StateChangeResponse{Log: entry, Changed: changed}, nil
		})

	addTool(server, t.logger, "get_task_history", "Show every state interval recorded for a log, oldest first",
		func(ctx context.Context, userID string, in TaskHistoryParams) (any, error) {
			rows, err := t.svc.History.ForLog(ctx, userID, in.ID)
			if err != nil {
				return nil, err
			}
			return HistoryResponse{LogID: in.ID, Transitions: rows}, nil
		})

	addTool(server, t.logger, "get_states_as_of", "Resolve the task states in force at the end of a day",
		func(ctx context.Context, userID string, in StatesAsOfParams) (any, error) {
			day := t.dayOrToday(in.Date)
			_, end, err := worklog.DayBounds(day, t.loc)
			if err != nil {
				return nil, err
			}
			states, err := t.svc.History.EffectiveStates(ctx, userID, in.IDs, end)
			if err != nil {
				return nil, err
			}
			return StatesResponse{Date: day, States: states}, nil
		})

	if t.svc.Assist != nil {
		assistSvc := t.svc.Assist
		addTool(server, t.logger, "classify_tasks", "Ask the model which unreviewed logs of the recent days are tasks",
			func(ctx context.Context, userID string, in DayParams) (any, error) {
				return assistSvc.ClassifyTasks(ctx, userID, t.dayOrToday(in.Date))
			})
	}
}

func (t *tools) registerReports(server *sdkmcp.Server) {
	reports := t.svc.Reports

	addTool(server, t.logger, "generate_report", "Assign tags for the day and (re)generate its report",
		func(ctx context.Context, userID string, in DayParams) (any, error) {
			return reports.Generate(ctx, userID, t.dayOrToday(in.Date))
		})

	addTool(server, t.logger, "get_report", "Get the stored report of a day",
		func(ctx context.Context, userID string, in DayParams) (any, error) {
			return reports.Get(ctx, userID, t.dayOrToday(in.Date))
		})

	addTool(server, t.logger, "list_reports", "List stored reports in a date range, newest first",
		func(ctx context.Context, userID string, in RangeParams) (any, error) {
			list, err := reports.List(ctx, userID, in.From, in.To)
			if err != nil {
				return nil, err
			}
			return ReportsResponse{Reports: list}, nil
		})

	addTool(server, t.logger, "update_report", "Replace the text of a stored report",
		func(ctx context.Context, userID string, in UpdateReportParams) (any, error) {
			return reports.UpdateContent(ctx, userID, in.Date, in.Content)
		})

	addTool(server, t.logger, "delete_report", "Delete the stored report of a day",
		func(ctx context.Context, userID string, in DayParams) (any, error) {
			day := t.dayOrToday(in.Date)
			if err := reports.Delete(ctx, userID, day); err != nil {
				return nil, err
			}
			return DeletedResponse{ID: day, Deleted: true}, nil
		})

	addTool(server, t.logger, "summarize_reports", "Write an executive summary over the reports in a date range",
		func(ctx context.Context, userID string, in RangeParams) (any, error) {
			return reports.Summarize(ctx, userID, in.From, in.To)
		})
}

func (t *tools) registerSearch(server *sdkmcp.Server) {
	searchSvc := t.svc.Search

	addTool(server, t.logger, "search_logs", "Semantic search over log entries",
		func(ctx context.Context, userID string, in SearchParams) (any, error) {
			matches, err := searchSvc.Search(ctx, userID, in.Query, search.Options{Threshold: in.Threshold, Limit: in.Limit})
			if err != nil {
				return nil, err
			}
			return MatchesResponse{Matches: matches}, nil
		})

	addTool(server, t.logger, "search_text", "Full-text search over log content and raw input",
		func(ctx context.Context, userID string, in SearchParams) (any, error) {
			logs, err := searchSvc.Lexical(ctx, userID, in.Query, in.Limit)
			if err != nil {
				return nil, err
			}
			return LogsResponse{Logs: logs}, nil
		})

	addTool(server, t.logger, "ask_logs", "Answer a question from the most related logs",
		func(ctx context.Context, userID string, in AskParams) (any, error) {
			return searchSvc.Ask(ctx, userID, in.Question)
		})

	if t.svc.Indexer != nil {
		indexer := t.svc.Indexer
		addTool(server, t.logger, "backfill_embeddings", "Embed recent logs that have no embedding yet",
			func(ctx context.Context, userID string, in BackfillParams) (any, error) {
				return indexer.Backfill(ctx, userID, in.Limit)
			})
	}
}
