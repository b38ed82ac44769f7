package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/worklog/internal/domain/assist"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/llm"
	"github.com/rpggio/worklog/internal/mcp"
)

const defaultLogLimit = 100

type api struct {
	svc    mcp.Services
	loc    *time.Location
	logger *slog.Logger
}

func (a *api) routes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", a.listProjects)
		r.Post("/", a.createProject)
		r.Get("/{id}", a.getProject)
		r.Patch("/{id}", a.updateProject)
		r.Delete("/{id}", a.deleteProject)
	})

	r.Route("/logs", func(r chi.Router) {
		r.Get("/", a.listLogs)
		r.Post("/", a.createLog)
		r.Post("/capture", a.captureLog)
		r.Post("/sync", a.syncLogs)
		r.Get("/{id}", a.getLog)
		r.Patch("/{id}", a.updateLog)
		r.Delete("/{id}", a.deleteLog)
		r.Put("/{id}/state", a.setState)
		r.Get("/{id}/history", a.taskHistory)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", a.listTasks)
		r.Post("/", a.createTask)
		r.Post("/classify", a.classifyTasks)
		r.Get("/states", a.statesAsOf)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", a.listReports)
		r.Get("/summary", a.summarizeReports)
		r.Post("/{date}", a.generateReport)
		r.Get("/{date}", a.getReport)
		r.Put("/{date}", a.updateReport)
		r.Delete("/{date}", a.deleteReport)
	})

	r.Route("/search", func(r chi.Router) {
		r.Get("/", a.search)
		r.Get("/text", a.searchText)
		r.Post("/ask", a.ask)
		r.Post("/backfill", a.backfill)
	})
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	if mcp.MapError(err) == nil {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, err)
}

func userID(r *http.Request) string {
	id, _ := UserFromContext(r.Context())
	return id
}

func (a *api) dayOrToday(day string) string {
	if day == "" {
		return worklog.Today(time.Now(), a.loc)
	}
	return day
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return n, nil
}

// Projects

func (a *api) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Projects.List(r.Context(), userID(r), project.Status(r.URL.Query().Get("status")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.ProjectsResponse{Projects: list})
}

func (a *api) createProject(w http.ResponseWriter, r *http.Request) {
	var in mcp.CreateProjectParams
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.svc.Projects.Create(r.Context(), userID(r), project.CreateRequest{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Status:      project.Status(in.Status),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *api) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Projects.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *api) updateProject(w http.ResponseWriter, r *http.Request) {
	var in mcp.UpdateProjectParams
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	req := project.UpdateRequest{ID: chi.URLParam(r, "id"), Name: in.Name, Code: in.Code, Description: in.Description}
	if in.Status != nil {
		status := project.Status(*in.Status)
		req.Status = &status
	}
	p, err := a.svc.Projects.Update(r.Context(), userID(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *api) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.Projects.Delete(r.Context(), userID(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.DeletedResponse{ID: id, Deleted: true})
}

// Logs

func (a *api) listLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if limit <= 0 {
		limit = defaultLogLimit
	}
	logs, err := a.svc.Entries.List(r.Context(), userID(r), worklog.ListOptions{
		Day:       q.Get("date"),
		From:      q.Get("from"),
		To:        q.Get("to"),
		ProjectID: q.Get("project_id"),
		LogType:   worklog.LogType(q.Get("log_type")),
		Tag:       q.Get("tag"),
		Keyword:   q.Get("keyword"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.LogsResponse{Logs: logs})
}

func (a *api) createLog(w http.ResponseWriter, r *http.Request) {
	var in mcp.CreateLogParams
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	entry, err := a.svc.Entries.Create(r.Context(), userID(r), worklog.CreateRequest{
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
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *api) captureLog(w http.ResponseWriter, r *http.Request) {
	if a.svc.Assist == nil {
		a.fail(w, r, llm.ErrNotConfigured)
		return
	}
	var in mcp.CaptureLogParams
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	logs, err := a.svc.Assist.Capture(r.Context(), userID(r), assist.CaptureRequest{RawInput: in.RawInput, LogDate: in.LogDate})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mcp.LogsResponse{Logs: logs})
}

func (a *api) syncLogs(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.Sync.Sync(r.Context(), userID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) getLog(w http.ResponseWriter, r *http.Request) {
	entry, err := a.svc.Entries.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *api) updateLog(w http.ResponseWriter, r *http.Request) {
	var in mcp.UpdateLogParams
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	req := worklog.UpdateRequest{
		ID:           chi.URLParam(r, "id"),
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
	entry, err := a.svc.Entries.Update(r.Context(), userID(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *api) deleteLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.Entries.Delete(r.Context(), userID(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.DeletedResponse{ID: id, Deleted: true})
}

func (a *api) setState(w http.ResponseWriter, r *http.Request) {
	var in struct {
		State string `json:"state"`
	}
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	entry, changed, err := a.svc.Entries.SetState(r.Context(), userID(r), chi.URLParam(r, "id"), worklog.TaskState(in.State))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.StateChangeResponse{Log: entry, Changed: changed})
}

func (a *api) taskHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, err := a.svc.History.ForLog(r.Context(), userID(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.HistoryResponse{LogID: id, Transitions: rows})
}

// Tasks

func (a *api) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	withLogs, _ := strconv.ParseBool(q.Get("with_logs"))
	opts := worklog.TaskListOptions{ProjectID: q.Get("project_id"), WithLogs: withLogs, Limit: limit}
	for _, s := range q["state"] {
		opts.States = append(opts.States, worklog.TaskState(s))
	}
	tasks, err := a.svc.Entries.ListTasks(r.Context(), userID(r), opts)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.TasksResponse{Tasks: tasks})
}

func (a *api) createTask(w http.ResponseWriter, r *http.Request) {
	var in mcp.CreateTaskParams
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	task, err := a.svc.Entries.CreateTask(r.Context(), userID(r), worklog.CreateTaskRequest{
		ProjectID:   in.ProjectID,
		Description: in.Description,
		Source:      in.Source,
		Priority:    worklog.TaskState(in.Priority),
		Day:         in.Date,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (a *api) classifyTasks(w http.ResponseWriter, r *http.Request) {
	if a.svc.Assist == nil {
		a.fail(w, r, llm.ErrNotConfigured)
		return
	}
	res, err := a.svc.Assist.ClassifyTasks(r.Context(), userID(r), a.dayOrToday(r.URL.Query().Get("date")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) statesAsOf(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day := a.dayOrToday(q.Get("date"))
	_, end, err := worklog.DayBounds(day, a.loc)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var ids []string
	for _, id := range strings.Split(q.Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	states, err := a.svc.History.EffectiveStates(r.Context(), userID(r), ids, end)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.StatesResponse{Date: day, States: states})
}

// Reports

func (a *api) listReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := a.svc.Reports.List(r.Context(), userID(r), q.Get("from"), q.Get("to"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.ReportsResponse{Reports: list})
}

func (a *api) summarizeReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := a.svc.Reports.Summarize(r.Context(), userID(r), q.Get("from"), q.Get("to"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *api) generateReport(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.Reports.Generate(r.Context(), userID(r), chi.URLParam(r, "date"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *api) getReport(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.Reports.Get(r.Context(), userID(r), chi.URLParam(r, "date"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *api) updateReport(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	rep, err := a.svc.Reports.UpdateContent(r.Context(), userID(r), chi.URLParam(r, "date"), in.Content)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *api) deleteReport(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "date")
	if err := a.svc.Reports.Delete(r.Context(), userID(r), day); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.DeletedResponse{ID: day, Deleted: true})
}

// Search

func (a *api) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var threshold float64
	if v := q.Get("threshold"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: threshold must be a number", errBadRequest))
			return
		}
	}
	matches, err := a.svc.Search.Search(r.Context(), userID(r), q.Get("q"), search.Options{Threshold: threshold, Limit: limit})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.MatchesResponse{Matches: matches})
}

func (a *api) searchText(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	logs, err := a.svc.Search.Lexical(r.Context(), userID(r), r.URL.Query().Get("q"), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mcp.LogsResponse{Logs: logs})
}

func (a *api) ask(w http.ResponseWriter, r *http.Request) {
	var in mcp.AskParams
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	answer, err := a.svc.Search.Ask(r.Context(), userID(r), in.Question)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (a *api) backfill(w http.ResponseWriter, r *http.Request) {
	if a.svc.Indexer == nil {
		a.fail(w, r, search.ErrNotConfigured)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.Indexer.Backfill(r.Context(), userID(r), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
