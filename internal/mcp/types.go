package mcp

import (
	"github.com/rpggio/worklog/internal/domain/history"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
)

type CreateProjectParams struct {
	Name        string `json:"name" jsonschema:"project display name"`
	Code        string `json:"code" jsonschema:"2-4 letter code used in task tags"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty" jsonschema:"active, completed or hold"`
}

type ListProjectsParams struct {
	Status string `json:"status,omitempty" jsonschema:"filter by status"`
}

type IDParams struct {
	ID string `json:"id"`
}

type UpdateProjectParams struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Code        *string `json:"code,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

type CaptureLogParams struct {
	RawInput string `json:"raw_input" jsonschema:"quick entry such as 'SC F H7 Director Moon sent the papers'"`
	LogDate  string `json:"log_date,omitempty" jsonschema:"YYYY-MM-DD, defaults to today"`
}

type CreateLogParams struct {
	Content      string   `json:"content"`
	LogType      string   `json:"log_type" jsonschema:"F received, T sent, W executed, I info"`
	Source       *string  `json:"source,omitempty"`
	ProjectID    *string  `json:"project_id,omitempty"`
	CategoryCode *string  `json:"category_code,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	LogDate      string   `json:"log_date,omitempty"`
	TaskTag      *string  `json:"task_id_tag,omitempty"`
	TaskState    string   `json:"task_state,omitempty"`
}

type ListLogsParams struct {
	Date      string `json:"date,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	LogType   string `json:"log_type,omitempty"`
	Tag       string `json:"task_id_tag,omitempty"`
	Keyword   string `json:"keyword,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

type UpdateLogParams struct {
	ID           string  `json:"id"`
	Content      *string `json:"content,omitempty"`
	Source       *string `json:"source,omitempty" jsonschema:"empty string clears"`
	LogType      *string `json:"log_type,omitempty"`
	CategoryCode *string `json:"category_code,omitempty"`
	ProjectID    *string `json:"project_id,omitempty" jsonschema:"empty string clears"`
	LogDate      *string `json:"log_date,omitempty"`
	TaskTag      *string `json:"task_id_tag,omitempty" jsonschema:"empty string clears"`
	TaskState    *string `json:"task_state,omitempty" jsonschema:"empty string clears the state"`
}

type CreateTaskParams struct {
	ProjectID   string  `json:"project_id"`
	Description string  `json:"description"`
	Source      *string `json:"source,omitempty"`
	Priority    string  `json:"priority,omitempty" jsonschema:"high, medium or low; defaults to medium"`
	Date        string  `json:"date,omitempty"`
}

type ListTasksParams struct {
	ProjectID string   `json:"project_id,omitempty"`
	States    []string `json:"states,omitempty"`
	WithLogs  bool     `json:"with_logs,omitempty" jsonschema:"include other logs sharing each task tag"`
	Limit     int      `json:"limit,omitempty"`
}

type SetTaskStateParams struct {
	ID    string `json:"id"`
	State string `json:"state" jsonschema:"high, medium, low, review, done, or empty to clear"`
}

type TaskHistoryParams struct {
	ID string `json:"id"`
}

type StatesAsOfParams struct {
	IDs  []string `json:"ids"`
	Date string   `json:"date" jsonschema:"states in force at the end of this day"`
}

type DayParams struct {
	Date string `json:"date,omitempty" jsonschema:"YYYY-MM-DD, defaults to today"`
}

type RangeParams struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type UpdateReportParams struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

type SearchParams struct {
	Query     string  `json:"query"`
	Threshold float64 `json:"threshold,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

type AskParams struct {
	Question string `json:"question"`
}

type BackfillParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"logs to embed, at most 30"`
}

type ProjectsResponse struct {
	Projects []project.ProjectSummary `json:"projects"`
}

type DeletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type LogsResponse struct {
	Logs []worklog.Entry `json:"logs"`
}

type TasksResponse struct {
	Tasks []worklog.Task `json:"tasks"`
}

type StateChangeResponse struct {
	Log     *worklog.Entry `json:"log"`
	Changed bool           `json:"changed"`
}

type HistoryResponse struct {
	LogID       string               `json:"log_id"`
	Transitions []history.Transition `json:"transitions"`
}

type StatesResponse struct {
	Date   string                       `json:"date"`
	States map[string]worklog.TaskState `json:"states"`
}

type ReportsResponse struct {
	Reports []report.Report `json:"reports"`
}

type MatchesResponse struct {
	Matches []search.Match `json:"matches"`
}
